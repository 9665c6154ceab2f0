// Package docparse turns structured course documents into Course entities and
// context-enriched content chunks ready for indexing.
//
// Expected layout:
//
//	Course Title: <title>
//	Course Link: <url>            (optional)
//	Course Instructor: <name>     (optional)
//
//	Lesson 0: Introduction
//	Lesson Link: <url>            (optional)
//	<lesson content...>
//	Lesson 1: ...
package docparse

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"courserag/internal/course"
	"courserag/internal/text"
)

// ErrMalformedDocument marks a document whose first line is not a valid
// course title. Callers skip such documents during batch loads.
var ErrMalformedDocument = errors.New("malformed course document")

var (
	titleRe      = regexp.MustCompile(`^Course Title:\s*(.+)$`)
	lessonRe     = regexp.MustCompile(`(?i)^Lesson\s+(\d+):\s*(.*)$`)
	courseLinkRe = regexp.MustCompile(`^Course Link:\s*(.+)$`)
	instructorRe = regexp.MustCompile(`^Course Instructor:\s*(.+)$`)
	lessonLinkRe = regexp.MustCompile(`^Lesson Link:\s*(.+)$`)
)

type Parser struct {
	chunkSize    int
	chunkOverlap int
}

func NewParser(chunkSize, chunkOverlap int) *Parser {
	return &Parser{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// ParseFile reads one course document from disk as whole text.
func (p *Parser) ParseFile(path string) (course.Course, []course.Chunk, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the configured docs folder
	if err != nil {
		return course.Course{}, nil, err
	}
	raw := strings.TrimPrefix(string(data), "\ufeff")
	return p.Parse(raw)
}

// Parse extracts the course entity and its enriched chunks from one document.
// Chunk indexes are assigned sequentially across the whole course, continuing
// across lesson boundaries.
func (p *Parser) Parse(raw string) (course.Course, []course.Chunk, error) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	m := titleRe.FindStringSubmatch(strings.TrimSpace(lines[0]))
	if m == nil {
		return course.Course{}, nil, fmt.Errorf("%w: first line must be 'Course Title: ...'", ErrMalformedDocument)
	}

	c := course.Course{Title: strings.TrimSpace(m[1])}

	// Lines 2-3 may carry the course link and instructor, in either order.
	body := 1
	for ; body < len(lines) && body <= 2; body++ {
		line := strings.TrimSpace(lines[body])
		if lm := courseLinkRe.FindStringSubmatch(line); lm != nil {
			c.Link = strings.TrimSpace(lm[1])
			continue
		}
		if im := instructorRe.FindStringSubmatch(line); im != nil {
			c.Instructor = strings.TrimSpace(im[1])
			continue
		}
		break
	}

	var chunks []course.Chunk
	chunkIndex := 0

	// Content between the header and the first lesson marker is indexed as
	// course-level chunks with no lesson number.
	firstLesson := len(lines)
	for i := body; i < len(lines); i++ {
		if lessonRe.MatchString(strings.TrimSpace(lines[i])) {
			firstLesson = i
			break
		}
	}
	if introText := strings.TrimSpace(strings.Join(lines[body:firstLesson], "\n")); introText != "" {
		for _, chunk := range text.Chunk(introText, p.chunkSize, p.chunkOverlap) {
			chunks = append(chunks, course.Chunk{
				Content:     chunk,
				CourseTitle: c.Title,
				Index:       chunkIndex,
			})
			chunkIndex++
		}
	}

	var currentLesson *course.Lesson
	var content []string

	flush := func() {
		if currentLesson == nil {
			return
		}
		lessonText := strings.TrimSpace(strings.Join(content, "\n"))
		n := currentLesson.Number
		for i, chunk := range text.Chunk(lessonText, p.chunkSize, p.chunkOverlap) {
			prefix := fmt.Sprintf("Course %s Lesson %d content: ", c.Title, n)
			if i == 0 {
				prefix = fmt.Sprintf("Lesson %d content: ", n)
			}
			num := n
			chunks = append(chunks, course.Chunk{
				Content:      prefix + chunk,
				CourseTitle:  c.Title,
				LessonNumber: &num,
				Index:        chunkIndex,
			})
			chunkIndex++
		}
		c.Lessons = append(c.Lessons, *currentLesson)
		content = content[:0]
	}

	for i := firstLesson; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if lm := lessonRe.FindStringSubmatch(trimmed); lm != nil {
			flush()
			number, _ := strconv.Atoi(lm[1])
			currentLesson = &course.Lesson{
				Number: number,
				Title:  strings.TrimSpace(lm[2]),
			}
			// Optional lesson link on the following line.
			if i+1 < len(lines) {
				if km := lessonLinkRe.FindStringSubmatch(strings.TrimSpace(lines[i+1])); km != nil {
					currentLesson.Link = strings.TrimSpace(km[1])
					i++
				}
			}
			continue
		}

		content = append(content, line)
	}
	flush()

	return c, chunks, nil
}
