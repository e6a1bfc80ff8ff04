package crawler

import (
	"regexp"
	"strconv"
	"time"

	"weibolens/pkg/errors"
	"weibolens/pkg/weibo"
)

// State is the crawl session's position in its lifecycle.
type State string

const (
	StateInit       State = "init"
	StateUserLookup State = "user_lookup"
	StatePaging     State = "paging"
	StateDone       State = "done"
	StateError      State = "error"
)

const dateLayout = "2006-01-02"

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Session is one crawl run: exactly one target, its bounds, and the posts
// accumulated so far in upstream (newest-first) order. Created per request,
// mutated only by the Controller, discarded after persistence.
type Session struct {
	Keyword string
	UserID  string

	MaxCount   int
	SinceDate  time.Time
	OutputPath string

	Posts []weibo.Post
	State State

	// Page is the index of the page being processed, 1-based.
	Page int
	// PageBound limits the walk for user crawls; zero means unbounded.
	PageBound int

	// User holds the profile metadata when the lookup succeeded.
	User *weibo.UserInfo
}

// NewSession validates the target and builds a session. Both target fields
// empty is the one fatal validation failure; it happens before any network
// use.
func NewSession(keyword, userID string, maxCount int, sinceDate time.Time, outputPath string) (*Session, error) {
	if keyword == "" && userID == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "either keyword or user_id must be provided")
	}
	if maxCount <= 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "max_count must be a positive integer")
	}
	if sinceDate.IsZero() {
		sinceDate = time.Now().AddDate(-1, 0, 0)
	}
	// Midnight of the calendar day, so a post dated the cutoff day itself is
	// still admissible regardless of the zone the cutoff was built in.
	year, month, day := sinceDate.Date()
	sinceDate = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	return &Session{
		Keyword:    keyword,
		UserID:     userID,
		MaxCount:   maxCount,
		SinceDate:  sinceDate,
		OutputPath: outputPath,
		State:      StateInit,
	}, nil
}

// Target returns the keyword or user id identifying this session.
func (s *Session) Target() string {
	if s.Keyword != "" {
		return s.Keyword
	}
	return s.UserID
}

// Count returns the number of accumulated posts.
func (s *Session) Count() int {
	return len(s.Posts)
}

// Full reports whether the session reached max_count.
func (s *Session) Full() bool {
	return len(s.Posts) >= s.MaxCount
}

// BeforeCutoff reports whether a canonical post date falls before the
// since-date cutoff. An unparseable date never triggers the stopping rule.
func (s *Session) BeforeCutoff(canonicalDate string) bool {
	if !isoDatePattern.MatchString(canonicalDate) {
		return false
	}
	t, err := time.Parse(dateLayout, canonicalDate)
	if err != nil {
		return false
	}
	return t.Before(s.SinceDate)
}

// ParseSinceDate accepts either a YYYY-MM-DD date or an integer day count
// counted back from today. An empty value yields the zero time, which
// NewSession resolves to one year ago.
func ParseSinceDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if days, err := strconv.Atoi(value); err == nil {
		if days < 0 {
			return time.Time{}, errors.New(errors.ErrorTypeValidation, "since_date day count cannot be negative")
		}
		return time.Now().AddDate(0, 0, -days), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, errors.Newf(errors.ErrorTypeValidation, "since_date must be an integer or in YYYY-MM-DD format: %q", value)
	}
	return t, nil
}
