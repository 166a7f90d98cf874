package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// menuItem pairs a short dish name with its longer description.  The
// short names keep the default menu response compact; descriptions are
// expanded only on request.
type menuItem struct {
	Name        string
	Description string
}

// menuSection keeps categories in a stable serving order (maps would
// shuffle them between responses).
type menuSection struct {
	Category string
	Items    []menuItem
}

var menuSections = []menuSection{
	{"Starters", []menuItem{
		{"Soup", "Tomato basil soup"},
		{"Fries", "Classic fries"},
		{"Bruschetta", "Tomato, basil, toasted bread"},
	}},
	{"Mains", []menuItem{
		{"Pasta", "Penne in alfredo or arrabbiata"},
		{"Pizza", "Margherita / Veg Supreme"},
		{"Bowl", "Grain bowl with seasonal veg"},
	}},
	{"Dessert", []menuItem{
		{"Brownie", "Warm brownie, ice cream"},
		{"Cheesecake", "Classic baked cheesecake"},
	}},
	{"Drinks", []menuItem{
		{"Coffee", "Espresso / Americano"},
		{"Tea", "Assorted teas"},
		{"Soda", "Soft drinks"},
	}},
}

// menuText renders the menu as plain text, either as compact
// category lines or with one described line per dish.
func menuText(details bool) string {
	lines := []string{"Menu"}
	for _, sec := range menuSections {
		if details {
			lines = append(lines, "", sec.Category+":")
			for _, it := range sec.Items {
				lines = append(lines, "- "+it.Name+": "+it.Description)
			}
		} else {
			names := make([]string, 0, len(sec.Items))
			for _, it := range sec.Items {
				names = append(names, it.Name)
			}
			lines = append(lines, "", sec.Category+": "+strings.Join(names, ", "))
		}
	}
	return strings.Join(lines, "\n")
}

// Menu handles GET /v1/menu.  Pass ?details=true to expand dish
// descriptions.
func Menu(c echo.Context) error {
	details := strings.EqualFold(c.QueryParam("details"), "true") || c.QueryParam("details") == "1"
	return c.JSON(http.StatusOK, echo.Map{"menu": menuText(details)})
}
