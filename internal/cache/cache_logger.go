package cache

import (
	"context"
	"errors"
)

// SafeDelete removes keys and logs failures instead of returning them.
// Cache invalidation must never fail a write path.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if helper == nil {
		return
	}
	if err := helper.Delete(ctx, keys...); err != nil && !errors.Is(err, ErrCacheNotAvailable) {
		helper.logger.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}

// SafeInvalidatePattern invalidates a pattern and logs failures instead of
// returning them.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if helper == nil {
		return
	}
	if err := helper.InvalidatePattern(ctx, pattern); err != nil && !errors.Is(err, ErrCacheNotAvailable) {
		helper.logger.Warn("cache pattern invalidation failed", "pattern", pattern, "error", err)
	}
}

// InvalidateCourseCache removes a course's entry, its stats, and all
// course listings after an enrollment or catalog change.
func InvalidateCourseCache(ctx context.Context, m *CacheManager, courseID string) {
	SafeDelete(ctx, m.Course, CourseKey(courseID), CourseStatsKey(courseID))
	SafeInvalidatePattern(ctx, m.Course, "course:list:*")
}

// InvalidateUserCache removes a user's cached entry after a profile change.
func InvalidateUserCache(ctx context.Context, m *CacheManager, userID string) {
	SafeDelete(ctx, m.User, UserKey(userID))
}
