// Package keylock 提供按 key 划分的互斥锁。
// 不同 key 之间互不阻塞, 同一 key 的临界区串行执行。
package keylock

import "sync"

// KeyLock 按字符串 key 管理一组互斥锁。
// 锁对象按需创建, 引用计数归零后回收, 不会随 key 空间无限增长。
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New 创建一个空的 KeyLock。
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

// Lock 获取 key 对应的锁, 阻塞直到可用。
func (k *KeyLock) Lock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock 释放 key 对应的锁。对未持有的 key 调用会 panic。
func (k *KeyLock) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("keylock: unlock of unheld key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
