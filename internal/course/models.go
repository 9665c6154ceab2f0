package course

// Lesson is one unit of a course. Immutable once parsed.
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// Course is identified by its title, which acts as the primary key across
// both index collections.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Chunk is one retrievable span of lesson content, already enriched with its
// contextual prefix. LessonNumber is nil for content that precedes any lesson
// marker. Index increases across the whole course and never resets at lesson
// boundaries.
type Chunk struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	Index        int
}

// Lesson returns the lesson with the given number, if present.
func (c Course) Lesson(number int) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Number == number {
			return l, true
		}
	}
	return Lesson{}, false
}
