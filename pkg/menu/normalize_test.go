package menu

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "2024-03-07T00:00:00"

// payload builds a RawPayload with a single menu entity holding the given days.
func payload(t *testing.T, field string, days ...map[string]any) *RawPayload {
	t.Helper()

	entity, err := json.Marshal(map[string]any{field: days})
	require.NoError(t, err)
	return &RawPayload{Menus: []json.RawMessage{entity}}
}

func day(date string, items ...map[string]any) map[string]any {
	return map[string]any{"Date": date, "MenuItems": items}
}

func item(name, meal, course string, calories any) map[string]any {
	return map[string]any{
		"FormalName":  name,
		"Meal":        meal,
		"Course":      course,
		"Description": "",
		"Ingredients": "",
		"Calories":    calories,
	}
}

func TestNormalize_SingleItem(t *testing.T) {
	t.Parallel()

	p := payload(t, DefaultDayListField, day(testKey, item("Pizza", "Lunch", "Entree", "400")))

	res, err := NewNormalizer().Normalize(p, testKey)
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, []MenuItem{{Name: "Pizza", Description: "", Ingredients: "", Calories: 400}}, res.Menu["Lunch"]["Entree"])
}

func TestNormalize_NotFound(t *testing.T) {
	t.Parallel()

	p := payload(t, DefaultDayListField, day(testKey, item("Pizza", "Lunch", "Entree", "400")))

	res, err := NewNormalizer().Normalize(p, "2024-03-08T00:00:00")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, res)
}

func TestNormalize_NilPayload(t *testing.T) {
	t.Parallel()

	_, err := NewNormalizer().Normalize(nil, testKey)
	require.ErrorIs(t, err, ErrNoPayload)
}

func TestNormalize_EmptyMenus(t *testing.T) {
	t.Parallel()

	_, err := NewNormalizer().Normalize(&RawPayload{}, testKey)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNormalize_SkipsBadItems(t *testing.T) {
	t.Parallel()

	missingMeal := item("Soup", "Lunch", "Soup", "120")
	delete(missingMeal, "Meal")

	nullCourse := item("Bread", "Lunch", "Bakery", "200")
	nullCourse["Course"] = nil

	p := payload(t, DefaultDayListField, day(testKey,
		item("", "Lunch", "Entree", "100"),
		item("   ", "Lunch", "Entree", "100"),
		missingMeal,
		nullCourse,
		item("Salad", "Lunch", "Side", "n/a"),
		item("Tacos", "Lunch", "Entree", "350"),
		item("Fries", "Lunch", "Side", "12.5"),
	))

	res, err := NewNormalizer().Normalize(p, testKey)
	require.NoError(t, err)

	assert.Equal(t, Menu{"Lunch": {"Entree": {{Name: "Tacos", Calories: 350}}}}, res.Menu)
	require.Len(t, res.Skipped, 6)

	reasons := make([]SkipReason, 0, len(res.Skipped))
	for _, s := range res.Skipped {
		reasons = append(reasons, s.Reason)
	}
	assert.Equal(t, []SkipReason{
		SkipBlankName,
		SkipBlankName,
		SkipMissingField,
		SkipMissingField,
		SkipInvalidCalories,
		SkipInvalidCalories,
	}, reasons)
	assert.Equal(t, "Meal", res.Skipped[2].Field)
	assert.Equal(t, "Course", res.Skipped[3].Field)
	assert.Equal(t, "Salad", res.Skipped[4].Name)
}

func TestNormalize_NeverProducesEmptyName(t *testing.T) {
	t.Parallel()

	names := []any{"", " ", "\t", nil, "Pizza", 42, "Soup"}
	items := make([]map[string]any, 0, len(names))
	for i, n := range names {
		it := item("", "Lunch", "Entree", "100")
		it["FormalName"] = n
		it["Course"] = fmt.Sprintf("C%d", i)
		items = append(items, it)
	}

	res, err := NewNormalizer().Normalize(payload(t, DefaultDayListField, day(testKey, items...)), testKey)
	require.NoError(t, err)

	for _, courses := range res.Menu {
		for course, list := range courses {
			require.NotEmpty(t, list, "course %s must not be empty", course)
			for _, it := range list {
				assert.NotEmpty(t, strings.TrimSpace(it.Name))
			}
		}
	}
	assert.Equal(t, 2, res.Menu.Len())
}

func TestNormalize_DamagingOneItemLeavesSiblingsAlone(t *testing.T) {
	t.Parallel()

	fields := []string{"FormalName", "Meal", "Course", "Description", "Ingredients", "Calories"}

	build := func() []map[string]any {
		return []map[string]any{
			item("Eggs", "Breakfast", "Entree", "300"),
			item("Pizza", "Lunch", "Entree", "400"),
			item("Salad", "Lunch", "Side", "90"),
		}
	}

	full, err := NewNormalizer().Normalize(payload(t, DefaultDayListField, day(testKey, build()...)), testKey)
	require.NoError(t, err)
	require.Equal(t, 3, full.Menu.Len())

	for target := range 3 {
		for _, field := range fields {
			t.Run(fmt.Sprintf("item%d/%s", target, field), func(t *testing.T) {
				t.Parallel()

				items := build()
				targetName := items[target]["FormalName"].(string)
				delete(items[target], field)

				res, err := NewNormalizer().Normalize(payload(t, DefaultDayListField, day(testKey, items...)), testKey)
				require.NoError(t, err)
				require.Len(t, res.Skipped, 1)
				assert.Equal(t, target, res.Skipped[0].Index)

				expected := Menu{}
				for meal, courses := range full.Menu {
					for course, list := range courses {
						for _, it := range list {
							if it.Name == targetName {
								continue
							}
							expected.Add(meal, course, it)
						}
					}
				}
				assert.Equal(t, expected, res.Menu)
			})
		}
	}
}

func TestNormalize_PreservesOrder(t *testing.T) {
	t.Parallel()

	p := payload(t, DefaultDayListField, day(testKey,
		item("C", "Lunch", "Entree", "1"),
		item("A", "Lunch", "Entree", "2"),
		item("B", "Lunch", "Entree", "3"),
		item("A", "Lunch", "Entree", "2"),
	))

	res, err := NewNormalizer().Normalize(p, testKey)
	require.NoError(t, err)

	names := make([]string, 0, 4)
	for _, it := range res.Menu["Lunch"]["Entree"] {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"C", "A", "B", "A"}, names)
}

func TestNormalize_CaloriesFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		calories any
		want     int
		ok       bool
	}{
		{"string", "400", 400, true},
		{"padded string", " 250 ", 250, true},
		{"integer number", 180, 180, true},
		{"zero", "0", 0, true},
		{"negative", "-5", -5, true},
		{"fractional string", "12.5", 0, false},
		{"fractional number", 12.5, 0, false},
		{"empty string", "", 0, false},
		{"bool", true, 0, false},
		{"null", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := payload(t, DefaultDayListField, day(testKey, item("Dish", "Lunch", "Entree", tt.calories)))
			res, err := NewNormalizer().Normalize(p, testKey)
			require.NoError(t, err)

			if !tt.ok {
				assert.True(t, res.Menu.IsEmpty())
				require.Len(t, res.Skipped, 1)
				return
			}
			require.Len(t, res.Menu["Lunch"]["Entree"], 1)
			assert.Equal(t, tt.want, res.Menu["Lunch"]["Entree"][0].Calories)
		})
	}
}

func TestNormalize_DayListField(t *testing.T) {
	t.Parallel()

	p := payload(t, "MenuDays", day(testKey, item("Pizza", "Lunch", "Entree", "400")))

	_, err := NewNormalizer().Normalize(p, testKey)
	require.ErrorIs(t, err, ErrNotFound)

	n := NewNormalizer(WithDayListField("MenuDays"))
	assert.Equal(t, "MenuDays", n.DayListField())

	res, err := n.Normalize(p, testKey)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Menu.Len())
}

func TestNormalize_FirstMatchWins(t *testing.T) {
	t.Parallel()

	p := payload(t, DefaultDayListField,
		day("2024-03-06T00:00:00", item("Old", "Lunch", "Entree", "1")),
		day(testKey, item("First", "Lunch", "Entree", "1")),
		day(testKey, item("Second", "Lunch", "Entree", "1")),
	)

	res, err := NewNormalizer().Normalize(p, testKey)
	require.NoError(t, err)
	assert.Equal(t, "First", res.Menu["Lunch"]["Entree"][0].Name)
	assert.Equal(t, 1, res.Menu.Len())
}

func TestNormalize_SearchesLaterEntities(t *testing.T) {
	t.Parallel()

	first, err := json.Marshal(map[string]any{"OrderDays": []any{day("2024-03-01T00:00:00")}})
	require.NoError(t, err)
	second, err := json.Marshal(map[string]any{"OrderDays": []any{day(testKey, item("Pizza", "Lunch", "Entree", "400"))}})
	require.NoError(t, err)

	p := &RawPayload{Menus: []json.RawMessage{json.RawMessage(`"not an object"`), first, second}}

	res, err := NewNormalizer().Normalize(p, testKey)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Menu.Len())
}

func TestNormalize_EmptyAndMalformedDays(t *testing.T) {
	t.Parallel()

	t.Run("null items", func(t *testing.T) {
		t.Parallel()
		p := &RawPayload{Menus: []json.RawMessage{
			json.RawMessage(`{"OrderDays":[{"Date":"` + testKey + `","MenuItems":null}]}`),
		}}
		res, err := NewNormalizer().Normalize(p, testKey)
		require.NoError(t, err)
		assert.True(t, res.Menu.IsEmpty())
	})

	t.Run("items not an array", func(t *testing.T) {
		t.Parallel()
		p := &RawPayload{Menus: []json.RawMessage{
			json.RawMessage(`{"OrderDays":[{"Date":"` + testKey + `","MenuItems":{"oops":true}}]}`),
		}}
		_, err := NewNormalizer().Normalize(p, testKey)
		require.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("non-object item", func(t *testing.T) {
		t.Parallel()
		p := &RawPayload{Menus: []json.RawMessage{
			json.RawMessage(`{"OrderDays":[{"Date":"` + testKey + `","MenuItems":[42,{"FormalName":"Pizza","Meal":"Lunch","Course":"Entree","Description":"","Ingredients":"","Calories":"400"}]}]}`),
		}}
		res, err := NewNormalizer().Normalize(p, testKey)
		require.NoError(t, err)
		require.Len(t, res.Skipped, 1)
		assert.Equal(t, SkipMalformed, res.Skipped[0].Reason)
		assert.Equal(t, 1, res.Menu.Len())
	})
}

func TestItemParseError_Error(t *testing.T) {
	t.Parallel()

	err := &ItemParseError{Index: 3, Name: "Salad", Field: "Calories", Reason: SkipInvalidCalories, Err: errNotInteger}
	assert.Contains(t, err.Error(), "item 3")
	assert.Contains(t, err.Error(), `"Salad"`)
	assert.Contains(t, err.Error(), "invalid_calories")
	assert.ErrorIs(t, err, errNotInteger)
}
