package router

import (
	"Jarvis_Memory/backend/go/internal/models"
)

// cascadeOrder is the fixed read cascade: cheapest and freshest first.
var cascadeOrder = []models.StorageTarget{
	models.TargetCache,
	models.TargetDocument,
	models.TargetGraph,
	models.TargetVector,
}

// targetTable is the static category -> storage targets map. A fact may
// never be persisted to a store absent from its category's row; the
// writer treats the table as authoritative.
//
// Identity-class categories live everywhere: cache for latency, the
// document store as source of truth, the graph for traversal, vectors
// for semantic recall. Sensitive categories stay in the document store
// only. Session-scoped data never leaves the cache.
var targetTable = map[models.Category][]models.StorageTarget{
	models.CategoryIdentity:   {models.TargetCache, models.TargetDocument, models.TargetGraph, models.TargetVector},
	models.CategoryName:       {models.TargetCache, models.TargetDocument, models.TargetGraph, models.TargetVector},
	models.CategoryLocation:   {models.TargetCache, models.TargetDocument, models.TargetGraph, models.TargetVector},
	models.CategoryOccupation: {models.TargetCache, models.TargetDocument, models.TargetGraph, models.TargetVector},

	models.CategoryPreference:         {models.TargetDocument, models.TargetGraph, models.TargetVector},
	models.CategoryDislike:            {models.TargetDocument, models.TargetGraph, models.TargetVector},
	models.CategoryRelationship:       {models.TargetDocument, models.TargetGraph, models.TargetVector},
	models.CategoryProject:            {models.TargetDocument, models.TargetGraph, models.TargetVector},
	models.CategoryGoal:               {models.TargetDocument, models.TargetGraph, models.TargetVector},
	models.CategorySkill:              {models.TargetDocument, models.TargetGraph, models.TargetVector},
	models.CategoryInterest:           {models.TargetDocument, models.TargetGraph, models.TargetVector},
	models.CategoryLanguage:           {models.TargetDocument, models.TargetGraph, models.TargetVector},
	models.CategoryCommunicationStyle: {models.TargetDocument, models.TargetGraph, models.TargetVector},

	models.CategorySchedule: {models.TargetCache},
	models.CategorySession:  {models.TargetCache},

	models.CategoryContact: {models.TargetDocument},
	models.CategoryHealth:  {models.TargetDocument},
}

// relationTable maps a category to the single relationship type and
// target node label the graph store may use for it. The closed mapping
// replaces string-built query fragments: an unknown category simply has
// no graph projection.
var relationTable = map[models.Category]struct {
	Type  models.RelationshipType
	Label models.NodeLabel
}{
	models.CategoryIdentity:           {models.RelHasAttribute, models.LabelAttribute},
	models.CategoryName:               {models.RelHasAttribute, models.LabelAttribute},
	models.CategoryLocation:           {models.RelLivesIn, models.LabelPlace},
	models.CategoryOccupation:         {models.RelWorksAs, models.LabelOccupation},
	models.CategoryPreference:         {models.RelLikes, models.LabelTopic},
	models.CategoryDislike:            {models.RelDislikes, models.LabelTopic},
	models.CategoryRelationship:       {models.RelKnows, models.LabelPerson},
	models.CategoryProject:            {models.RelWorksOn, models.LabelProject},
	models.CategoryGoal:               {models.RelPursues, models.LabelTopic},
	models.CategorySkill:              {models.RelHasSkill, models.LabelSkill},
	models.CategoryInterest:           {models.RelInterestedIn, models.LabelTopic},
	models.CategoryLanguage:           {models.RelSpeaks, models.LabelLanguage},
	models.CategoryCommunicationStyle: {models.RelHasAttribute, models.LabelAttribute},
}

// Router resolves where a fact is written and where it is primarily
// read from. The tables are static; the only dynamic input is the
// fact's importance, which can pull the cache in for hot facts.
type Router struct{}

// New creates a Router.
func New() *Router {
	return &Router{}
}

// TargetsFor returns the ordered list of stores a fact must be written
// to. High-importance facts always include the fast cache so that
// frequently needed facts stay cheap to read, except for sensitive
// categories, which are pinned to the document store alone.
func (r *Router) TargetsFor(category models.Category, importance models.Importance) []models.StorageTarget {
	base, ok := targetTable[category]
	if !ok {
		// Unknown categories should have been rejected by validation;
		// route to the source of truth only.
		return []models.StorageTarget{models.TargetDocument}
	}

	targets := make([]models.StorageTarget, len(base))
	copy(targets, base)

	if category.IsSensitive() {
		return targets
	}
	if importance == models.ImportanceCritical || importance == models.ImportanceHigh {
		if !contains(targets, models.TargetCache) {
			targets = append(targets, models.TargetCache)
		}
	}
	return targets
}

// ReadPreference returns the single store a fetch should try first for
// this category: the cheapest member of the category's target set, in
// cascade order.
func (r *Router) ReadPreference(category models.Category) models.StorageTarget {
	targets := targetTable[category]
	for _, t := range cascadeOrder {
		if contains(targets, t) {
			return t
		}
	}
	return models.TargetDocument
}

// CascadeOrder returns the fixed store order of the read path.
func (r *Router) CascadeOrder() []models.StorageTarget {
	out := make([]models.StorageTarget, len(cascadeOrder))
	copy(out, cascadeOrder)
	return out
}

// RelationFor projects a fact onto its graph relation. The second
// return is false for categories with no graph projection.
func (r *Router) RelationFor(fact *models.Fact) (models.Relation, bool) {
	mapping, ok := relationTable[fact.Category]
	if !ok {
		return models.Relation{}, false
	}
	return models.Relation{
		UserID:      fact.UserID,
		Type:        mapping.Type,
		TargetLabel: mapping.Label,
		TargetValue: fact.Value,
		FactID:      fact.ID,
	}, true
}

func contains(targets []models.StorageTarget, t models.StorageTarget) bool {
	for _, have := range targets {
		if have == t {
			return true
		}
	}
	return false
}
