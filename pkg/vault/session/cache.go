package session

import (
	"fmt"
	"sync"
)

// Cache provides a thread-safe registry of session managers keyed by name,
// for applications that authenticate against several mounts or backends.
type Cache struct {
	managers map[string]*Manager
	mu       sync.RWMutex
}

// NewCache creates an empty session cache.
func NewCache() *Cache {
	return &Cache{
		managers: make(map[string]*Manager),
	}
}

// Get retrieves a manager by name.
func (c *Cache) Get(name string) (*Manager, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	manager, ok := c.managers[name]
	if !ok {
		return nil, fmt.Errorf("session %q not found in cache", name)
	}
	return manager, nil
}

// Set stores a manager in the cache.
func (c *Cache) Set(name string, manager *Manager) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.managers[name] = manager
}

// Delete removes a manager from the cache.
func (c *Cache) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.managers, name)
}

// Has checks if a manager exists in the cache.
func (c *Cache) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.managers[name]
	return ok
}

// GetOrCreate retrieves an existing manager or creates a new one using the
// provided factory.
func (c *Cache) GetOrCreate(name string, factory func() (*Manager, error)) (*Manager, error) {
	// First try to get with read lock
	c.mu.RLock()
	if manager, ok := c.managers[name]; ok {
		c.mu.RUnlock()
		return manager, nil
	}
	c.mu.RUnlock()

	// Need to create - acquire write lock
	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if manager, ok := c.managers[name]; ok {
		return manager, nil
	}

	manager, err := factory()
	if err != nil {
		return nil, err
	}

	c.managers[name] = manager
	return manager, nil
}

// List returns all session names in the cache.
func (c *Cache) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.managers))
	for name := range c.managers {
		names = append(names, name)
	}
	return names
}

// Clear removes all managers from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.managers = make(map[string]*Manager)
}

// Size returns the number of managers in the cache.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.managers)
}
