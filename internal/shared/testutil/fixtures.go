package testutil

import (
	"strings"
)

// SalesHeader is the column header of a pizza sales export
var SalesHeader = []string{
	"pizza_id", "order_id", "pizza_name_id", "quantity", "order_date", "order_time",
	"unit_price", "total_price", "pizza_size", "pizza_category", "pizza_ingredients", "pizza_name",
}

// Order is one line of a sales CSV. Fields are written verbatim, so an empty
// string produces an empty cell.
type Order struct {
	PizzaID     string
	OrderID     string
	PizzaNameID string
	Quantity    string
	Date        string
	Time        string
	UnitPrice   string
	TotalPrice  string
	Size        string
	Category    string
	Ingredients string
	Name        string
}

func (o Order) cells() []string {
	return []string{
		o.PizzaID, o.OrderID, o.PizzaNameID, o.Quantity, o.Date, o.Time,
		o.UnitPrice, o.TotalPrice, o.Size, o.Category, o.Ingredients, o.Name,
	}
}

// DefaultOrders returns two fully populated orders: two large Hawaiian pizzas
// on order 1 and one medium Pepperoni on order 2
func DefaultOrders() []Order {
	return []Order{
		{
			PizzaID: "1", OrderID: "1", PizzaNameID: "hawaiian_l", Quantity: "2",
			Date: "1/1/2015", Time: "11:38:36", UnitPrice: "5", TotalPrice: "10",
			Size: "L", Category: "Classic", Ingredients: "Sliced Ham, Pineapple", Name: "The Hawaiian Pizza",
		},
		{
			PizzaID: "2", OrderID: "2", PizzaNameID: "pepperoni_m", Quantity: "1",
			Date: "1/2/2015", Time: "18:05:00", UnitPrice: "10", TotalPrice: "10",
			Size: "M", Category: "Classic", Ingredients: "Mozzarella Cheese, Pepperoni", Name: "The Pepperoni Pizza",
		},
	}
}

// SalesCSV renders orders under SalesHeader. Cells containing a comma or a
// quote are quoted.
func SalesCSV(orders ...Order) []byte {
	var b strings.Builder
	writeLine(&b, SalesHeader)
	for _, o := range orders {
		writeLine(&b, o.cells())
	}
	return []byte(b.String())
}

func writeLine(b *strings.Builder, cells []string) {
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		if strings.ContainsAny(c, ",\"\n") {
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(c, `"`, `""`))
			b.WriteByte('"')
			continue
		}
		b.WriteString(c)
	}
	b.WriteByte('\n')
}
