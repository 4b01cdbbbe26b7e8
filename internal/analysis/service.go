// Package analysis orchestrates one ingestion run: fetch posts, score them,
// execute threshold trades and refresh the aggregate sentiment.
package analysis

import (
	"context"
	"time"

	"coinwhisperer/internal/domain"
	"coinwhisperer/internal/events"
	"coinwhisperer/internal/feed"
	"coinwhisperer/internal/metrics"
	"coinwhisperer/internal/notify"
	"coinwhisperer/internal/sentiment"
	"coinwhisperer/internal/storage"
	"coinwhisperer/internal/trading"
	"coinwhisperer/pkg/errors"
	"coinwhisperer/pkg/logger"
)

// Result summarizes one analysis run.
type Result struct {
	PostsProcessed int            `json:"tweetsProcessed"`
	PostsSkipped   int            `json:"tweetsSkipped"`
	TradesExecuted int            `json:"tradesExecuted"`
	Trades         []domain.Trade `json:"trades"`
}

// Service runs the ingestion pipeline. Per-item failures are logged and
// skipped so one bad post never aborts the batch.
type Service struct {
	store       storage.Store
	source      feed.Source
	broadcaster events.Broadcaster
	notifier    notify.Notifier
	lookback    int
	log         *logger.Logger
}

// NewService wires the pipeline. notifier may be notify.Noop.
func NewService(store storage.Store, source feed.Source, broadcaster events.Broadcaster, notifier notify.Notifier, lookback int) *Service {
	if lookback <= 0 {
		lookback = 100
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Service{
		store:       store,
		source:      source,
		broadcaster: broadcaster,
		notifier:    notifier,
		lookback:    lookback,
		log:         logger.Get().With("component", "analysis"),
	}
}

// RunAnalysis executes one full pipeline pass.
func (s *Service) RunAnalysis(ctx context.Context) (*Result, error) {
	start := time.Now()
	result, err := s.run(ctx)
	metrics.RecordAnalysisRun(time.Since(start), err)
	return result, err
}

func (s *Service) run(ctx context.Context) (*Result, error) {
	drafts, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch posts")
	}

	result := &Result{Trades: []domain.Trade{}}
	for _, draft := range drafts {
		post, err := s.ingest(ctx, draft)
		if err != nil {
			s.log.Errorf("Failed to ingest post %s: %v", draft.ExternalID, err)
			continue
		}
		if post == nil {
			result.PostsSkipped++
			continue
		}
		result.PostsProcessed++

		// Re-read per post so an autoTrading toggle takes effect mid-batch
		cfg, err := s.store.GetConfig(ctx)
		if err != nil {
			s.log.Errorf("Failed to load trading config: %v", err)
			continue
		}
		if !cfg.AutoTrading {
			continue
		}
		trade, err := s.tryTrade(ctx, cfg, post)
		if err != nil {
			s.log.Errorf("Failed to trade on post %s: %v", post.ExternalID, err)
			continue
		}
		if trade != nil {
			result.TradesExecuted++
			result.Trades = append(result.Trades, *trade)
		}
	}

	if err := s.refreshOverallSentiment(ctx); err != nil {
		s.log.Errorf("Failed to refresh overall sentiment: %v", err)
	}

	s.log.Infof("Analysis run: %d processed, %d skipped, %d trades",
		result.PostsProcessed, result.PostsSkipped, result.TradesExecuted)
	return result, nil
}

// ingest scores and stores one draft. Returns (nil, nil) for duplicates.
func (s *Service) ingest(ctx context.Context, draft domain.PostDraft) (*domain.Post, error) {
	existing, err := s.store.GetPostByExternalID(ctx, draft.ExternalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.DuplicatePostsSkipped.Inc()
		return nil, nil
	}

	score, label := sentiment.Score(draft.Content)
	post := &domain.Post{
		ExternalID:     draft.ExternalID,
		Content:        draft.Content,
		AuthorName:     draft.AuthorName,
		AuthorHandle:   draft.AuthorHandle,
		AuthorImage:    draft.AuthorImage,
		CreatedAt:      draft.CreatedAt,
		Likes:          draft.Likes,
		Reposts:        draft.Reposts,
		SentimentScore: score,
		SentimentLabel: label,
		CoinSymbol:     domain.NormalizeSymbol(draft.CoinSymbol),
	}

	stored, err := s.store.CreatePost(ctx, post)
	if errors.Is(err, errors.ErrDuplicatePost) {
		metrics.DuplicatePostsSkipped.Inc()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	metrics.PostsIngested.Inc()
	s.broadcaster.Broadcast(events.NewPostEvent(stored))
	return stored, nil
}

// tryTrade applies the threshold rule to one scored post. Untracked and
// unknown coins are skipped.
func (s *Service) tryTrade(ctx context.Context, cfg *domain.TradingConfig, post *domain.Post) (*domain.Trade, error) {
	if post.CoinSymbol == "" {
		return nil, nil
	}
	coin, err := s.store.GetCoinBySymbol(ctx, post.CoinSymbol)
	if err != nil {
		return nil, err
	}
	if coin == nil || !coin.Tracked {
		return nil, nil
	}

	trade := trading.Decide(coin, post.SentimentScore, cfg.BuyThreshold, cfg.SellThreshold)
	if trade == nil {
		return nil, nil
	}

	stored, err := s.store.CreateTrade(ctx, trade)
	if err != nil {
		return nil, err
	}

	metrics.RecordTrade(string(stored.Type))
	s.broadcaster.Broadcast(events.NewTradeEvent(stored))

	if cfg.Notifications {
		if err := s.notifier.NotifyTrade(ctx, stored); err != nil {
			s.log.Errorf("Failed to notify trade %d: %v", stored.ID, err)
		}
	}
	return stored, nil
}

// refreshOverallSentiment averages the latest posts into the stats singleton.
func (s *Service) refreshOverallSentiment(ctx context.Context) error {
	posts, err := s.store.ListPosts(ctx, s.lookback, "")
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		return nil
	}

	sum := 0.0
	for _, post := range posts {
		sum += post.SentimentScore
	}
	avg := sum / float64(len(posts))
	label := domain.LabelForScore(avg)

	_, err = s.store.UpdateStats(ctx, domain.StatsPatch{
		OverallSentiment:      &avg,
		OverallSentimentLabel: &label,
	})
	return err
}
