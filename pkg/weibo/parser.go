package weibo

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"weibolens/pkg/errors"
	"weibolens/pkg/logger"
)

var (
	topicPattern   = regexp.MustCompile(`#(.*?)#`)
	mentionPattern = regexp.MustCompile(`@([0-9A-Za-z_\x{4e00}-\x{9fa5}]+)`)
	tagPattern     = regexp.MustCompile(`<[^>]+>`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// LongTextFetcher fetches the full text of a truncated long-form post.
type LongTextFetcher interface {
	FetchLongText(ctx context.Context, postID string) (string, error)
}

// Parser converts raw post records into normalized Posts.
type Parser struct {
	dates     *DateNormalizer
	longTexts LongTextFetcher
	logger    logger.Logger
}

// NewParser creates a Parser. longTexts may be nil, in which case truncated
// posts keep their inline text.
func NewParser(dates *DateNormalizer, longTexts LongTextFetcher, log logger.Logger) *Parser {
	if log == nil {
		log = logger.GetLogger()
	}
	if dates == nil {
		dates = NewDateNormalizer(log)
	}
	return &Parser{dates: dates, longTexts: longTexts, logger: log}
}

// Parse converts one raw record into a Post. A nil or id-less record returns
// a parsing error; callers treat it as a skip signal, never as a fatal
// failure.
func (p *Parser) Parse(ctx context.Context, mblog *MBlog) (Post, error) {
	if mblog == nil {
		return Post{}, errors.New(errors.ErrorTypeParsing, "nil post record")
	}
	if mblog.ID == "" {
		return Post{}, errors.New(errors.ErrorTypeParsing, "post record has no id")
	}

	rawText := mblog.Text

	// Long posts arrive truncated; one blocking follow-up fetch recovers the
	// full text. Failure keeps the inline text, never the whole record.
	if mblog.IsLongText && p.longTexts != nil {
		if fullText, err := p.longTexts.FetchLongText(ctx, mblog.ID); err == nil && fullText != "" {
			rawText = fullText
		} else if err != nil {
			p.logger.WarnWithFields("failed to fetch long post text, keeping inline text", map[string]interface{}{
				"post_id": mblog.ID,
				"error":   err.Error(),
			})
		}
	}

	post := Post{
		ID:             mblog.ID,
		UserID:         strconv.FormatInt(mblog.User.ID, 10),
		ScreenName:     mblog.User.ScreenName,
		Text:           StripHTML(rawText),
		Topics:         ExtractTopics(rawText),
		Mentions:       ExtractMentions(rawText),
		PicURLs:        resolvePics(mblog.Pics),
		VideoURL:       resolveVideo(mblog.PageInfo),
		CreatedAt:      p.dates.Normalize(mblog.CreatedAt),
		Source:         mblog.Source,
		AttitudesCount: int(mblog.AttitudesCount),
		CommentsCount:  int(mblog.CommentsCount),
		RepostsCount:   int(mblog.RepostsCount),
	}

	return post, nil
}

// StripHTML extracts the text nodes of an HTML fragment and joins them with
// single spaces. A regex tag strip covers input the parser cannot handle.
func StripHTML(text string) string {
	if text == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return collapseSpaces(tagPattern.ReplaceAllString(text, ""))
	}

	var parts []string
	doc.Contents().Each(func(_ int, sel *goquery.Selection) {
		collectText(sel, &parts)
	})
	return strings.Join(parts, " ")
}

// collectText walks the selection depth-first and gathers non-empty text
// nodes in document order.
func collectText(sel *goquery.Selection, parts *[]string) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) == "#text" {
			if trimmed := strings.TrimSpace(child.Text()); trimmed != "" {
				*parts = append(*parts, trimmed)
			}
			return
		}
		collectText(child, parts)
	})
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// ExtractTopics returns hashtags delimited by a matching pair of # markers,
// in order of appearance.
func ExtractTopics(text string) []string {
	if text == "" {
		return nil
	}
	matches := topicPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	topics := make([]string, 0, len(matches))
	for _, m := range matches {
		topics = append(topics, m[1])
	}
	return topics
}

// ExtractMentions returns @-prefixed tokens over an alphanumeric-plus-CJK
// word class; punctuation ends the match.
func ExtractMentions(text string) []string {
	if text == "" {
		return nil
	}
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	mentions := make([]string, 0, len(matches))
	for _, m := range matches {
		mentions = append(mentions, m[1])
	}
	return mentions
}

// resolvePics picks the largest-resolution URL per attached image.
func resolvePics(pics []Pic) []string {
	if len(pics) == 0 {
		return nil
	}
	urls := make([]string, 0, len(pics))
	for _, pic := range pics {
		u := pic.Large.URL
		if u == "" {
			u = pic.URL
		}
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// resolveVideo picks the first non-empty stream by descending quality.
func resolveVideo(pageInfo *PageInfo) string {
	if pageInfo == nil || pageInfo.Type != "video" {
		return ""
	}
	for _, candidate := range []string{
		pageInfo.MediaInfo.MP4720p,
		pageInfo.MediaInfo.MP4HD,
		pageInfo.MediaInfo.MP4SD,
	} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}
