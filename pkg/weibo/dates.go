package weibo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"weibolens/pkg/logger"
)

const canonicalDateLayout = "2006-01-02"

// absoluteLayout matches the fixed weekday/month/day/time/offset/year format
// the upstream uses for older posts, e.g. "Mon Apr 01 10:15:00 +0800 2024".
const absoluteLayout = "Mon Jan 02 15:04:05 -0700 2006"

var (
	monthDayPattern     = regexp.MustCompile(`^\d{1,2}-\d{1,2}$`)
	monthDayTimePattern = regexp.MustCompile(`^\d{1,2}-\d{1,2} \d{1,2}:\d{1,2}`)
	fullDatePattern     = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}`)
)

// DateNormalizer converts vendor date strings, relative or absolute, to
// canonical YYYY-MM-DD. The clock is injectable so relative forms are
// testable.
type DateNormalizer struct {
	now    func() time.Time
	logger logger.Logger
}

// NewDateNormalizer returns a normalizer using the wall clock.
func NewDateNormalizer(log logger.Logger) *DateNormalizer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &DateNormalizer{now: time.Now, logger: log}
}

// NewDateNormalizerAt returns a normalizer pinned to a fixed clock.
func NewDateNormalizerAt(now func() time.Time, log logger.Logger) *DateNormalizer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &DateNormalizer{now: now, logger: log}
}

// Normalize applies the recognition rules in order from the most specific
// relative markers down to the absolute formats. Unambiguous absolute forms
// are checked before the generic fallback so well-formed dates are never
// miscast to today.
func (d *DateNormalizer) Normalize(createdAt string) string {
	createdAt = strings.TrimSpace(createdAt)
	now := d.now()

	switch {
	case strings.HasPrefix(createdAt, "刚刚"):
		return now.Format(canonicalDateLayout)

	case strings.Contains(createdAt, "分钟前"):
		if minutes, err := strconv.Atoi(strings.TrimSpace(strings.Split(createdAt, "分钟前")[0])); err == nil {
			return now.Add(-time.Duration(minutes) * time.Minute).Format(canonicalDateLayout)
		}

	case strings.Contains(createdAt, "小时前"):
		if hours, err := strconv.Atoi(strings.TrimSpace(strings.Split(createdAt, "小时前")[0])); err == nil {
			return now.Add(-time.Duration(hours) * time.Hour).Format(canonicalDateLayout)
		}

	case strings.Contains(createdAt, "昨天"):
		return now.AddDate(0, 0, -1).Format(canonicalDateLayout)

	case monthDayPattern.MatchString(createdAt):
		return fmt.Sprintf("%d-%s", now.Year(), padMonthDay(createdAt))

	case monthDayTimePattern.MatchString(createdAt):
		return fmt.Sprintf("%d-%s", now.Year(), padMonthDay(strings.SplitN(createdAt, " ", 2)[0]))

	case fullDatePattern.MatchString(createdAt):
		// Already YYYY-M-D, possibly with a trailing time; keep the date part.
		return padFullDate(strings.SplitN(createdAt, " ", 2)[0])
	}

	if t, err := time.Parse(absoluteLayout, createdAt); err == nil {
		return t.Format(canonicalDateLayout)
	}

	d.logger.WarnWithFields("unparseable post date, falling back to today", map[string]interface{}{
		"created_at": createdAt,
	})
	return now.Format(canonicalDateLayout)
}

// padMonthDay turns "3-7" into "03-07".
func padMonthDay(md string) string {
	parts := strings.SplitN(md, "-", 2)
	if len(parts) != 2 {
		return md
	}
	m, err1 := strconv.Atoi(parts[0])
	d, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return md
	}
	return fmt.Sprintf("%02d-%02d", m, d)
}

// padFullDate turns "2024-3-7" into "2024-03-07".
func padFullDate(ymd string) string {
	parts := strings.SplitN(ymd, "-", 3)
	if len(parts) != 3 {
		return ymd
	}
	m, err1 := strconv.Atoi(parts[1])
	d, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return ymd
	}
	return fmt.Sprintf("%s-%02d-%02d", parts[0], m, d)
}
