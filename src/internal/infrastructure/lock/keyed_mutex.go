// Package lock 以鍵序列化同一會籍的變更
package lock

import (
	"sync"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
)

// KeyedMutex 每個鍵一把互斥鎖，沒有持有者時釋放
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

var _ ports.MembershipLocker = (*KeyedMutex)(nil)

// NewKeyedMutex 建立鍵鎖
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*entry)}
}

// Lock 取得 key 的鎖，返回的 unlock 只能呼叫一次
func (k *KeyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

// Len 目前持有或等待中的鍵數量
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
