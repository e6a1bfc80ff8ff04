package crawler

import (
	"context"
	"time"

	"weibolens/pkg/errors"
	"weibolens/pkg/logger"
	"weibolens/pkg/metrics"
	"weibolens/pkg/ratelimit"
	"weibolens/pkg/weibo"
)

// DefaultPageCap bounds the page walk when the upstream never signals an end.
const DefaultPageCap = 50

// PostWriter persists accumulated posts at the end of a session.
type PostWriter interface {
	WritePosts(path string, posts []weibo.Post) error
}

// Options bounds a single crawl run.
type Options struct {
	// MaxCount caps the number of accumulated posts.
	MaxCount int
	// SinceDate excludes posts older than this day. Zero means one year ago.
	SinceDate time.Time
	// OutputPath is the CSV destination for the session's posts.
	OutputPath string
}

// Controller drives crawl sessions through their lifecycle: optional user
// lookup, then the paging walk, then persistence. One controller serves many
// sessions; all per-run state lives on the Session.
type Controller struct {
	client  weibo.Client
	parser  *weibo.Parser
	delayer ratelimit.Delayer
	writer  PostWriter
	logger  logger.Logger
	pageCap int
}

// New creates a crawl controller.
func New(client weibo.Client, parser *weibo.Parser, delayer ratelimit.Delayer, writer PostWriter, log logger.Logger) *Controller {
	if log == nil {
		log = logger.GetLogger()
	}
	if delayer == nil {
		delayer = ratelimit.NopDelayer{}
	}
	return &Controller{
		client:  client,
		parser:  parser,
		delayer: delayer,
		writer:  writer,
		logger:  log,
		pageCap: DefaultPageCap,
	}
}

// SetPageCap overrides the hard page-index cap.
func (c *Controller) SetPageCap(limit int) {
	if limit > 0 {
		c.pageCap = limit
	}
}

// CrawlByKeyword runs a keyword search session and returns the number of
// posts persisted. Validation failures surface as errors; everything that
// goes wrong mid-crawl is recovered and logged.
func (c *Controller) CrawlByKeyword(ctx context.Context, keyword string, opts Options) (int, error) {
	session, err := NewSession(keyword, "", opts.MaxCount, opts.SinceDate, opts.OutputPath)
	if err != nil {
		return 0, err
	}
	metrics.CrawlRuns.WithLabelValues("keyword").Inc()
	return c.run(ctx, session)
}

// CrawlByUserID runs a user timeline session and returns the number of posts
// persisted.
func (c *Controller) CrawlByUserID(ctx context.Context, userID string, opts Options) (int, error) {
	session, err := NewSession("", userID, opts.MaxCount, opts.SinceDate, opts.OutputPath)
	if err != nil {
		return 0, err
	}
	metrics.CrawlRuns.WithLabelValues("user").Inc()
	return c.run(ctx, session)
}

// run drives a session through lookup, paging, and persistence. A failed
// write is logged and reported as zero posts rather than an error.
func (c *Controller) run(ctx context.Context, session *Session) (int, error) {
	start := time.Now()
	defer metrics.ObserveCrawlDuration(start)

	log := c.logger.WithFields(map[string]interface{}{
		"target":    session.Target(),
		"max_count": session.MaxCount,
		"since":     session.SinceDate.Format(dateLayout),
	})
	log.Info("starting crawl")

	if session.UserID != "" {
		c.lookupUser(ctx, session)
	}

	session.State = StatePaging
	if err := c.walk(ctx, session); err != nil {
		session.State = StateError
		metrics.CrawlErrors.Inc()
		log.WithError(err).Error("crawl aborted")
		return 0, err
	}
	session.State = StateDone

	log.InfoWithFields("crawl finished", map[string]interface{}{
		"posts": session.Count(),
		"pages": session.Page,
	})

	if c.writer != nil && session.OutputPath != "" {
		if err := c.writer.WritePosts(session.OutputPath, session.Posts); err != nil {
			log.WithError(err).Error("failed to persist posts")
			return 0, nil
		}
	}
	return session.Count(), nil
}

// lookupUser fetches profile metadata and derives the page bound from the
// profile's post total. A failed lookup does not abort the session; the walk
// proceeds with a single-page bound.
func (c *Controller) lookupUser(ctx context.Context, session *Session) {
	session.State = StateUserLookup

	info, err := c.client.FetchUserInfo(ctx, session.UserID)
	if err != nil {
		c.logger.WithError(err).WithField("user_id", session.UserID).
			Warn("user lookup failed, limiting crawl to one page")
		session.PageBound = 1
		return
	}

	session.User = info
	session.PageBound = weibo.PageBound(info.StatusesCount, session.MaxCount)
	if session.PageBound < 1 {
		session.PageBound = 1
	}
	c.logger.InfoWithFields("resolved user", map[string]interface{}{
		"user_id":     session.UserID,
		"screen_name": info.ScreenName,
		"statuses":    info.StatusesCount,
		"page_bound":  session.PageBound,
	})
}

// walk drives the paging loop. Every iteration issues the pre-request delay,
// fetches one page, folds its records into the session, and issues the
// post-page delay whether or not the fetch succeeded. A failed page is never
// retried; the walk moves to the next index.
func (c *Controller) walk(ctx context.Context, session *Session) error {
	for session.State == StatePaging {
		session.Page++
		if session.Page > c.pageCap {
			break
		}
		if session.PageBound > 0 && session.Page > session.PageBound {
			break
		}

		if err := c.delayer.BeforeRequest(ctx); err != nil {
			return err
		}

		envelope, err := c.fetchPage(ctx, session)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.PageFailures.Inc()
			c.logger.WithError(err).WithField("page", session.Page).
				Warn("page fetch failed, skipping to next page")
		} else {
			metrics.PagesFetched.Inc()
			c.consumePage(ctx, session, envelope)
		}

		if err := c.delayer.AfterPage(ctx); err != nil {
			return err
		}
	}
	return nil
}

// fetchPage fetches the session's current page for whichever target kind is
// set. A rejected envelope counts as a page failure.
func (c *Controller) fetchPage(ctx context.Context, session *Session) (*weibo.Envelope, error) {
	var (
		envelope *weibo.Envelope
		err      error
	)
	if session.Keyword != "" {
		envelope, err = c.client.FetchSearchPage(ctx, session.Keyword, session.Page)
	} else {
		envelope, err = c.client.FetchUserPage(ctx, session.UserID, session.Page)
	}
	if err != nil {
		return nil, err
	}
	if envelope.Ok != 1 {
		return nil, errors.Newf(errors.ErrorTypeParsing, "upstream rejected page %d", session.Page)
	}
	return envelope, nil
}

// consumePage folds one page of records into the session, applying the
/// stopping rules in order: a post older than the cutoff ends the session
// without being kept, and reaching max_count ends it immediately. A search
// page with no records means the result set is exhausted.
func (c *Controller) consumePage(ctx context.Context, session *Session, envelope *weibo.Envelope) {
	records := collectRecords(envelope)
	if len(records) == 0 && session.Keyword != "" {
		c.logger.WithField("page", session.Page).Debug("empty search page, ending crawl")
		session.State = StateDone
		return
	}

	for _, record := range records {
		post, err := c.parser.Parse(ctx, record)
		if err != nil {
			metrics.RecordsSkipped.Inc()
			c.logger.WithError(err).Debug("skipping malformed record")
			continue
		}

		if session.BeforeCutoff(post.CreatedAt) {
			c.logger.DebugWithFields("reached since-date cutoff", map[string]interface{}{
				"post_date": post.CreatedAt,
				"cutoff":    session.SinceDate.Format(dateLayout),
			})
			session.State = StateDone
			return
		}

		session.Posts = append(session.Posts, post)
		metrics.PostsAccumulated.Inc()
		if session.Full() {
			session.State = StateDone
			return
		}
	}
}

// collectRecords flattens a page envelope into its post records, unwrapping
// the group cards that search pages nest results in.
func collectRecords(envelope *weibo.Envelope) []*weibo.MBlog {
	var records []*weibo.MBlog
	for _, card := range envelope.Data.Cards {
		switch card.CardType {
		case weibo.CardTypePost:
			if card.MBlog != nil {
				records = append(records, card.MBlog)
			}
		case weibo.CardTypeGroup:
			for _, inner := range card.CardGroup {
				if inner.CardType == weibo.CardTypePost && inner.MBlog != nil {
					records = append(records, inner.MBlog)
				}
			}
		}
	}
	return records
}
