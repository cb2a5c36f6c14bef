package util

import (
	"container/list"
	"fmt"
	"sync"
)

// lruEntry 链表节点中保存的键值对。
type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// LRUCache 是一个支持泛型且线程安全的LRU缓存。
// 超出容量时淘汰最久未使用的条目。
type LRUCache[K comparable, V any] struct {
	capacity int
	ll       *list.List
	cache    map[K]*list.Element
	lock     sync.RWMutex // 读写锁保证并发安全
}

// NewLRU 创建一个容量固定的LRU缓存实例。
func NewLRU[K comparable, V any](capacity int) (*LRUCache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity 必须大于 0")
	}
	return &LRUCache[K, V]{
		capacity: capacity,
		ll:       list.New(),
		cache:    make(map[K]*list.Element),
	}, nil
}

// Get 根据键获取一个值, 并把它标记为最近使用。
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	element, ok := c.cache[key]
	if !ok {
		var zeroV V
		return zeroV, false
	}
	c.ll.MoveToFront(element)
	return element.Value.(*lruEntry[K, V]).value, true
}

// Put 添加或更新一个键值对, 必要时淘汰最旧条目。
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.cache[key]; ok {
		element.Value.(*lruEntry[K, V]).value = value
		c.ll.MoveToFront(element)
		return
	}

	element := c.ll.PushFront(&lruEntry[K, V]{key: key, value: value})
	c.cache[key] = element

	if c.ll.Len() > c.capacity {
		back := c.ll.Back()
		if back != nil {
			c.ll.Remove(back)
			delete(c.cache, back.Value.(*lruEntry[K, V]).key)
		}
	}
}

// Remove 删除指定键, 返回是否删除了条目。
func (c *LRUCache[K, V]) Remove(key K) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	element, ok := c.cache[key]
	if !ok {
		return false
	}
	c.ll.Remove(element)
	delete(c.cache, key)
	return true
}

// Len 返回当前缓存中的条目数量。
func (c *LRUCache[K, V]) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.ll.Len()
}
