package menu

import (
	"encoding/json"
	"slices"
	"strings"
)

// MenuItem is a single dish as shown to subscribers.
type MenuItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Ingredients string `json:"item_ingredients"`
	Calories    int    `json:"calories"`
}

// Menu maps meal -> course -> items in display order.
type Menu map[string]map[string][]MenuItem

// Add appends item to the meal/course list, creating both levels on first use.
func (m Menu) Add(meal, course string, item MenuItem) {
	courses, ok := m[meal]
	if !ok {
		courses = make(map[string][]MenuItem)
		m[meal] = courses
	}
	courses[course] = append(courses[course], item)
}

// Len returns the total number of items across all meals and courses.
func (m Menu) Len() int {
	n := 0
	for _, courses := range m {
		for _, items := range courses {
			n += len(items)
		}
	}
	return n
}

// IsEmpty reports whether the menu has no items.
func (m Menu) IsEmpty() bool {
	return m.Len() == 0
}

// Section is one meal with its courses in a stable order.
type Section struct {
	Meal    string
	Courses []Course
}

// Course is one course with its items in vendor order.
type Course struct {
	Name  string
	Items []MenuItem
}

// Sections returns the menu as an ordered slice for rendering.
// Meals listed in order come first (matched case-insensitively), followed by
// any remaining meals alphabetically. Courses are sorted alphabetically.
func (m Menu) Sections(order ...string) []Section {
	meals := make([]string, 0, len(m))
	for meal := range m {
		meals = append(meals, meal)
	}

	rank := func(meal string) int {
		for i, o := range order {
			if strings.EqualFold(strings.TrimSpace(o), meal) {
				return i
			}
		}
		return len(order)
	}

	slices.SortFunc(meals, func(a, b string) int {
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(a, b)
	})

	sections := make([]Section, 0, len(meals))
	for _, meal := range meals {
		courses := m[meal]
		names := make([]string, 0, len(courses))
		for name := range courses {
			names = append(names, name)
		}
		slices.Sort(names)

		section := Section{Meal: meal, Courses: make([]Course, 0, len(names))}
		for _, name := range names {
			section.Courses = append(section.Courses, Course{Name: name, Items: courses[name]})
		}
		sections = append(sections, section)
	}
	return sections
}

// RawPayload is the vendor response decoded just far enough to know it holds menus.
// The menu entities themselves are left raw for the normalizer.
type RawPayload struct {
	Menus []json.RawMessage `json:"Menus"`
}
