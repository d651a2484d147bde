package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unieval/course-review-api/internal/models"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
)

type mockEncouragementRepo struct {
	sentences []models.Encouragement
	listCalls int
}

func (m *mockEncouragementRepo) ListActive(ctx context.Context) ([]models.Encouragement, error) {
	m.listCalls++
	return m.sentences, nil
}

func (m *mockEncouragementRepo) Create(ctx context.Context, content string) (*models.Encouragement, error) {
	sentence := models.Encouragement{EncouragementID: "7321779921283186700", Content: content, Status: models.StatusActive}
	m.sentences = append(m.sentences, sentence)
	return &sentence, nil
}

func (m *mockEncouragementRepo) Update(ctx context.Context, encouragementID string, content *string, status *models.RecordStatus) error {
	for i := range m.sentences {
		if m.sentences[i].EncouragementID == encouragementID {
			if content != nil {
				m.sentences[i].Content = *content
			}
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockEncouragementRepo) SoftDelete(ctx context.Context, encouragementID string) error {
	for i := range m.sentences {
		if m.sentences[i].EncouragementID == encouragementID {
			m.sentences = append(m.sentences[:i], m.sentences[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

// memoryCache is an in-process CacheRepository for exercising the cache path.
type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func encouragements(contents ...string) []models.Encouragement {
	var sentences []models.Encouragement
	for i, content := range contents {
		sentences = append(sentences, models.Encouragement{
			EncouragementID: "732177992128318670" + string(rune('0'+i)),
			Content:         content,
			Status:          models.StatusActive,
		})
	}
	return sentences
}

func TestRandomPicksFromActiveSentences(t *testing.T) {
	repo := &mockEncouragementRepo{sentences: encouragements("keep going", "you got this")}
	svc := NewEncouragementService(repo, nil, time.Minute, nil, nil)
	svc.pick = func(n int) int { return 1 }

	sentence, err := svc.Random(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "you got this", sentence.Content)
}

func TestRandomWithoutSentences(t *testing.T) {
	svc := NewEncouragementService(&mockEncouragementRepo{}, nil, time.Minute, nil, nil)

	_, err := svc.Random(context.Background())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestRandomServesFromCache(t *testing.T) {
	repo := &mockEncouragementRepo{sentences: encouragements("keep going")}
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	svc := NewEncouragementService(repo, cache, time.Minute, nil, nil)
	svc.pick = func(n int) int { return 0 }

	for i := 0; i < 3; i++ {
		_, err := svc.Random(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, repo.listCalls)
}

func TestCreateInvalidatesCache(t *testing.T) {
	repo := &mockEncouragementRepo{sentences: encouragements("keep going")}
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	svc := NewEncouragementService(repo, cache, time.Minute, nil, nil)
	svc.pick = func(n int) int { return 0 }

	_, err := svc.Random(context.Background())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), EncouragementRequest{Content: "fresh sentence"})
	require.NoError(t, err)

	_, err = svc.Random(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestCreateRejectsOverlongContent(t *testing.T) {
	svc := NewEncouragementService(&mockEncouragementRepo{}, nil, time.Minute, nil, nil)

	long := make([]byte, 249)
	for i := range long {
		long[i] = 'a'
	}
	_, err := svc.Create(context.Background(), EncouragementRequest{Content: string(long)})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUpdateMissingSentence(t *testing.T) {
	svc := NewEncouragementService(&mockEncouragementRepo{}, nil, time.Minute, nil, nil)

	err := svc.Update(context.Background(), "7321779921283186700", EncouragementRequest{Content: "updated"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
