package models

// RelationshipType is the closed set of edge types the graph store may
// create. Cypher fragments are validated against this enum at
// definition time instead of being sanitized at runtime.
type RelationshipType string

const (
	RelLivesIn      RelationshipType = "LIVES_IN"
	RelWorksAs      RelationshipType = "WORKS_AS"
	RelLikes        RelationshipType = "LIKES"
	RelDislikes     RelationshipType = "DISLIKES"
	RelKnows        RelationshipType = "KNOWS"
	RelHasSkill     RelationshipType = "HAS_SKILL"
	RelInterestedIn RelationshipType = "INTERESTED_IN"
	RelPursues      RelationshipType = "PURSUES"
	RelWorksOn      RelationshipType = "WORKS_ON"
	RelSpeaks       RelationshipType = "SPEAKS"
	RelHasAttribute RelationshipType = "HAS_ATTRIBUTE"
)

// NodeLabel is the closed set of node labels the graph store may attach
// to a relationship target.
type NodeLabel string

const (
	LabelUser       NodeLabel = "User"
	LabelPlace      NodeLabel = "Place"
	LabelOccupation NodeLabel = "Occupation"
	LabelTopic      NodeLabel = "Topic"
	LabelPerson     NodeLabel = "Person"
	LabelSkill      NodeLabel = "Skill"
	LabelProject    NodeLabel = "Project"
	LabelLanguage   NodeLabel = "Language"
	LabelAttribute  NodeLabel = "Attribute"
)

// Relation is one user-scoped edge in the relationship graph, derived
// from a fact by the router's category mapping.
type Relation struct {
	UserID      string           `json:"user_id"`
	Type        RelationshipType `json:"type"`
	TargetLabel NodeLabel        `json:"target_label"`
	TargetValue string           `json:"target_value"`
	FactID      string           `json:"fact_id"`
}
