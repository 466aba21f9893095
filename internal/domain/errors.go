package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrDatasetUnavailable is returned when no dataset snapshot has been loaded yet
	ErrDatasetUnavailable = errors.New("dataset not loaded")

	// ErrInvalidDataset is returned when the dataset file cannot be read or decoded
	ErrInvalidDataset = errors.New("invalid dataset file")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
