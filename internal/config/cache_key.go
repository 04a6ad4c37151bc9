package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExerciseSetKey returns the cache key for a category's exercise set
func (r *CacheKeyStruct) ExerciseSetKey(categoryID string) string {
	return fmt.Sprintf("practice:category:%s:set", categoryID)
}

// CategoryListKey returns the cache key for the category listing
func (r *CacheKeyStruct) CategoryListKey() string {
	return "practice:categories"
}

// ResultsChannel returns the Redis PubSub channel for finished sessions
func (r *CacheKeyStruct) ResultsChannel() string {
	return "practice:results"
}

var CacheKey = NewCacheKeyStruct()
