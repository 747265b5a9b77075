package domain

// lessonCatalog is the fixed set of lesson identifiers used to seed per-user
// progress. It must match the lesson ids the client ships with.
var lessonCatalog = []string{
	"alphabet",
	"greetings",
	"numbers",
	"colors",
	"family",
	"food",
	"travel",
	"verbs",
	"cases",
	"idioms",
	"proverbs",
	"literature",
}

// LessonCatalog returns a copy of the fixed lesson id catalog.
func LessonCatalog() []string {
	catalog := make([]string, len(lessonCatalog))
	copy(catalog, lessonCatalog)
	return catalog
}
