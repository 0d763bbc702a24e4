package salesdata

import (
	"math"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"

	"salespulse/pkg/contracts/domain"
)

const (
	// TopPizzaLimit caps the popular pizza ranking
	TopPizzaLimit = 10
	// PreviewLimit caps the number of serialized preview rows
	PreviewLimit = 10

	dayFormat = "2006-01-02"
)

// Aggregate computes the sales metrics of a transformed dataset. An empty
// dataset yields zero scalars and empty collections.
func Aggregate(ds *domain.Dataset) *domain.Metrics {
	if ds == nil {
		ds = &domain.Dataset{}
	}

	var (
		revenue  = make([]float64, 0, ds.Len())
		quantity = make([]float64, 0, ds.Len())
		orders   = make(map[string]struct{})

		pizzas     = newGroups[string]()
		categories = newGroups[string]()
		sizes      = newGroups[string]()
		days       = newGroups[string]()
		hours      = newGroups[int]()
	)

	numericIDs := ds.Kind(domain.ColumnOrderID) == domain.KindNumeric
	for i := range ds.Records {
		rec := &ds.Records[i]
		revenue = append(revenue, rec.Revenue)
		quantity = append(quantity, rec.Quantity)
		if id := orderKey(rec.OrderID, numericIDs); id != "" {
			orders[id] = struct{}{}
		}

		if rec.PizzaName != "" {
			g := pizzas.get(rec.PizzaName)
			g.quantity = append(g.quantity, rec.Quantity)
			g.revenue = append(g.revenue, rec.Revenue)
		}
		if rec.PizzaCategory != "" {
			categories.add(rec.PizzaCategory, rec.Revenue)
		}
		if rec.PizzaSize != "" {
			sizes.add(rec.PizzaSize, rec.Revenue)
		}
		days.add(rec.OrderDatetime.Format(dayFormat), rec.Revenue)
		hours.add(rec.Hour, rec.Revenue)
	}

	totalRevenue := sum(revenue)
	avgOrderValue := 0.0
	if len(orders) > 0 {
		avgOrderValue = totalRevenue / float64(len(orders))
	}

	m := &domain.Metrics{
		TotalRevenue:   round2(totalRevenue),
		TotalOrders:    len(orders),
		AvgOrderValue:  round2(avgOrderValue),
		TotalItemsSold: round2(sum(quantity)),
		PopularPizzas:  popularPizzas(pizzas),
		CategorySales:  []domain.CategorySales{},
		SizeSales:      []domain.SizeSales{},
		DailySales:     []domain.DailySales{},
		HourlySales:    []domain.HourlySales{},
		DataPreview:    SerializeRecords(ds, PreviewLimit),
	}
	for _, k := range categories.sortedKeys() {
		m.CategorySales = append(m.CategorySales, domain.CategorySales{PizzaCategory: k, Revenue: sum(categories.get(k).revenue)})
	}
	for _, k := range sizes.sortedKeys() {
		m.SizeSales = append(m.SizeSales, domain.SizeSales{PizzaSize: k, Revenue: sum(sizes.get(k).revenue)})
	}
	for _, k := range days.sortedKeys() {
		m.DailySales = append(m.DailySales, domain.DailySales{Date: k, Revenue: sum(days.get(k).revenue)})
	}
	for _, k := range hours.sortedKeys() {
		m.HourlySales = append(m.HourlySales, domain.HourlySales{Hour: k, Revenue: sum(hours.get(k).revenue)})
	}
	return m
}

// popularPizzas ranks pizzas by quantity sold. Groups are visited in
// ascending name order, so equal quantities keep that order.
func popularPizzas(pizzas *groups[string]) []domain.PizzaSales {
	ranked := make([]domain.PizzaSales, 0, len(pizzas.byKey))
	for _, name := range pizzas.sortedKeys() {
		g := pizzas.get(name)
		ranked = append(ranked, domain.PizzaSales{
			PizzaName: name,
			Quantity:  sum(g.quantity),
			Revenue:   sum(g.revenue),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Quantity > ranked[j].Quantity
	})
	if len(ranked) > TopPizzaLimit {
		ranked = ranked[:TopPizzaLimit]
	}
	return ranked
}

// orderKey normalizes numeric ids so "7" and "7.0" count as one order.
func orderKey(id string, numeric bool) string {
	if id == "" || !numeric {
		return id
	}
	if f, ok := parseNumber(id); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return id
}

type group struct {
	quantity []float64
	revenue  []float64
}

type groups[K int | string] struct {
	byKey map[K]*group
}

func newGroups[K int | string]() *groups[K] {
	return &groups[K]{byKey: make(map[K]*group)}
}

func (g *groups[K]) get(k K) *group {
	grp, ok := g.byKey[k]
	if !ok {
		grp = &group{}
		g.byKey[k] = grp
	}
	return grp
}

func (g *groups[K]) add(k K, revenue float64) {
	grp := g.get(k)
	grp.revenue = append(grp.revenue, revenue)
}

func (g *groups[K]) sortedKeys() []K {
	keys := make([]K, 0, len(g.byKey))
	for k := range g.byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// sum adds the non-missing values, 0 for none.
func sum(values []float64) float64 {
	data := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return 0
	}
	total, err := stats.Sum(data)
	if err != nil {
		return 0
	}
	return total
}

func round2(x float64) float64 {
	r, err := stats.Round(x, 2)
	if err != nil {
		return x
	}
	return r
}
