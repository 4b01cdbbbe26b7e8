package feed

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"coinwhisperer/internal/domain"
)

const mockLatency = 1 * time.Second

// mockPosts are the canned posts the demo rotates through. External IDs
// get a per-fetch suffix so repeated fetches produce fresh posts.
var mockPosts = []domain.PostDraft{
	{
		ExternalID:   "1234567890",
		Content:      "$DOGE is showing huge potential right now! The community is stronger than ever and with new developments coming, we could see 3x gains soon! 🚀 #Dogecoin #tothemoon",
		AuthorName:   "CryptoWhale",
		AuthorHandle: "whale_crypto",
		Likes:        234,
		Reposts:      56,
		CoinSymbol:   "DOGE",
	},
	{
		ExternalID:   "2345678901",
		Content:      "$SHIB looks like it's about to collapse again. All hype, no substance. Classic pump and dump scheme. I'd stay away if I were you. #Shibatoken #cryptowarning",
		AuthorName:   "CryptoSceptic",
		AuthorHandle: "sceptic_crypto",
		Likes:        43,
		Reposts:      12,
		CoinSymbol:   "SHIB",
	},
	{
		ExternalID:   "3456789012",
		Content:      "$PEPE trading volume is up 24% in the last 24 hours. The price remains stable despite market fluctuations. Interesting to watch how this develops. #PEPE #memecoin",
		AuthorName:   "CryptoAnalyst",
		AuthorHandle: "analyst_crypto",
		Likes:        87,
		Reposts:      21,
		CoinSymbol:   "PEPE",
	},
	{
		ExternalID:   "4567890123",
		Content:      "Just bought more $DOGE at the dip! This is the future of digital payments, mark my words! So many new developments coming. #Dogecoin #CryptoGems 💎",
		AuthorName:   "DogeEnthusiast",
		AuthorHandle: "doge_hodler",
		Likes:        129,
		Reposts:      45,
		CoinSymbol:   "DOGE",
	},
	{
		ExternalID:   "5678901234",
		Content:      "$SHIB just announced a new partnership that could drive real utility. This might be a game changer for the token if implemented properly. #SHIB #ShibaArmy",
		AuthorName:   "TokenNews",
		AuthorHandle: "token_news",
		Likes:        312,
		Reposts:      98,
		CoinSymbol:   "SHIB",
	},
	{
		ExternalID:   "6789012345",
		Content:      "I'm selling all my $PEPE before it crashes further. The market seems to be losing interest in meme tokens. Time to focus on real projects with utility. #crypto",
		AuthorName:   "RealCryptoTrader",
		AuthorHandle: "real_crypto",
		Likes:        56,
		Reposts:      14,
		CoinSymbol:   "PEPE",
	},
}

// MockSource simulates the external social feed: each fetch waits a fixed
// latency and returns 1-3 randomly chosen posts stamped with fresh IDs.
type MockSource struct {
	mu      sync.Mutex
	rng     *rand.Rand
	latency time.Duration
	now     func() time.Time
}

// NewMockSource creates a mock feed source
func NewMockSource() *MockSource {
	return &MockSource{
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		latency: mockLatency,
		now:     time.Now,
	}
}

// Fetch returns a randomized batch of posts after the simulated latency
func (s *MockSource) Fetch(ctx context.Context) ([]domain.PostDraft, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.latency):
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.rng.Intn(3) + 1
	perm := s.rng.Perm(len(mockPosts))

	now := s.now().UTC()
	suffix := now.UnixMilli() % 10000

	batch := make([]domain.PostDraft, 0, count)
	for _, idx := range perm[:count] {
		draft := mockPosts[idx]
		draft.ExternalID = fmt.Sprintf("%s%04d", draft.ExternalID, suffix)
		draft.CreatedAt = now
		batch = append(batch, draft)
	}

	return batch, nil
}
