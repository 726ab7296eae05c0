package util

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// CacheConfig 用于配置LRU缓存的行为。
type CacheConfig struct {
	// Capacity 是缓存的最大元素数量，必须大于0。
	Capacity int
	// TTL 是元素自最后一次访问（读或写）起的存活时间。如果为0，则元素永不过期。
	TTL time.Duration
	// Clock 为空时使用 time.Now。
	Clock func() time.Time
}

// entry 结构体用于存储链表节点中的实际数据。
type entry[K comparable, V any] struct {
	key        K
	value      V
	expiration time.Time // 元素的过期时间
}

// LRUCache 是一个支持泛型、线程安全、容量受限的LRU缓存。
type LRUCache[K comparable, V any] struct {
	config CacheConfig
	ll     *list.List
	cache  map[K]*list.Element
	now    func() time.Time
	lock   sync.Mutex
}

// NewLRU 使用指定的配置创建一个LRU缓存实例。
func NewLRU[K comparable, V any](config CacheConfig) (*LRUCache[K, V], error) {
	if config.Capacity <= 0 {
		return nil, fmt.Errorf("lru: capacity must be positive, got %d", config.Capacity)
	}
	now := config.Clock
	if now == nil {
		now = time.Now
	}
	return &LRUCache[K, V]{
		config: config,
		ll:     list.New(),
		cache:  make(map[K]*list.Element),
		now:    now,
	}, nil
}

// Get 方法根据键获取一个值，并将其标记为最近使用。
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.getLocked(key)
}

// Put 方法向缓存中添加或更新一个键值对。
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.putLocked(key, value)
}

// GetOrCreate returns the cached value for key, or stores and returns create()
// when the key is absent or expired. create runs under the cache lock.
func (c *LRUCache[K, V]) GetOrCreate(key K, create func() V) V {
	c.lock.Lock()
	defer c.lock.Unlock()
	if v, ok := c.getLocked(key); ok {
		return v
	}
	v := create()
	c.putLocked(key, v)
	return v
}

func (c *LRUCache[K, V]) getLocked(key K) (V, bool) {
	element, ok := c.cache[key]
	if !ok {
		var zeroV V
		return zeroV, false
	}

	// 被动淘汰过期元素
	e := element.Value.(*entry[K, V])
	if c.config.TTL > 0 && c.now().After(e.expiration) {
		c.removeElement(element)
		var zeroV V
		return zeroV, false
	}

	c.touch(e)
	c.ll.MoveToFront(element)
	return e.value, true
}

func (c *LRUCache[K, V]) putLocked(key K, value V) {
	if element, ok := c.cache[key]; ok {
		e := element.Value.(*entry[K, V])
		e.value = value
		c.touch(e)
		c.ll.MoveToFront(element)
		return
	}

	c.pruneExpired()
	e := &entry[K, V]{key: key, value: value}
	c.touch(e)
	c.cache[key] = c.ll.PushFront(e)

	for c.ll.Len() > c.config.Capacity {
		c.removeElement(c.ll.Back())
	}
}

// touch 刷新元素的过期时间，调用方需持有锁。
func (c *LRUCache[K, V]) touch(e *entry[K, V]) {
	if c.config.TTL > 0 {
		e.expiration = c.now().Add(c.config.TTL)
	}
}

// pruneExpired drops expired entries from the cold end. Expiry follows
// access order, so it stops at the first live entry.
func (c *LRUCache[K, V]) pruneExpired() {
	if c.config.TTL <= 0 {
		return
	}
	now := c.now()
	for back := c.ll.Back(); back != nil; back = c.ll.Back() {
		if !now.After(back.Value.(*entry[K, V]).expiration) {
			return
		}
		c.removeElement(back)
	}
}

// removeElement 从链表和map中移除元素，调用方需持有锁。
func (c *LRUCache[K, V]) removeElement(e *list.Element) {
	c.ll.Remove(e)
	delete(c.cache, e.Value.(*entry[K, V]).key)
}

// Len 返回当前缓存中的条目数量（包括尚未淘汰的过期条目）。
func (c *LRUCache[K, V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.ll.Len()
}
