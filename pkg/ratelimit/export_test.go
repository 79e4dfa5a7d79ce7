package ratelimit

// Cleanup runs one eviction pass synchronously.
func (s *MemoryStore) Cleanup() { s.cleanup() }
