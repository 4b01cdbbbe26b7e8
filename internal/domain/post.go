package domain

import "time"

// Post is a tweet-like record ingested from the (mock) social feed.
// Identity is the external post ID; posts are never mutated or deleted.
type Post struct {
	ID             int64          `json:"id" db:"id"`
	ExternalID     string         `json:"tweetId" db:"external_id"`
	Content        string         `json:"content" db:"content"`
	AuthorName     string         `json:"authorName" db:"author_name"`
	AuthorHandle   string         `json:"authorUsername" db:"author_handle"`
	AuthorImage    string         `json:"authorProfileImage,omitempty" db:"author_image"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	Likes          int            `json:"likes" db:"likes"`
	Reposts        int            `json:"retweets" db:"reposts"`
	SentimentScore float64        `json:"sentimentScore" db:"sentiment_score"`
	SentimentLabel SentimentLabel `json:"sentimentLabel" db:"sentiment_label"`
	CoinSymbol     string         `json:"coinTag" db:"coin_symbol"`
}

// PostDraft is an unscored post as delivered by the feed, before
// sentiment analysis assigns a score and label.
type PostDraft struct {
	ExternalID   string
	Content      string
	AuthorName   string
	AuthorHandle string
	AuthorImage  string
	CreatedAt    time.Time
	Likes        int
	Reposts      int
	CoinSymbol   string
}
