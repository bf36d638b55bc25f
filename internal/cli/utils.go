// Package cli renders storefront search state for the terminal: styled text,
// compact one-line-per-product output, or JSON for other programs.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/catalog"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/storefront"
	"github.com/NebXTeaath/GNT-Store-sub001/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable styled text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one tab-separated line per product.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates s.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	name   lipgloss.Style
	price  lipgloss.Style
	strike lipgloss.Style
	meta   lipgloss.Style
	hint   lipgloss.Style
	errMsg lipgloss.Style
	noData lipgloss.Style
}

// newStyles binds the styles to w so that color is only emitted for terminals.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		header: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")),
		name:   r.NewStyle().Bold(true),
		price:  r.NewStyle().Foreground(lipgloss.Color("32")),
		strike: r.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("240")),
		meta:   r.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
		hint:   r.NewStyle().Foreground(lipgloss.Color("33")),
		errMsg: r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		noData: r.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteView writes a storefront search page in the given format.
func WriteView(w io.Writer, view storefront.View, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, view)
	case OutputCompact:
		writeCompact(w, view.Results)
		return nil
	default:
		writeViewText(w, view)
		return nil
	}
}

func writeViewText(w io.Writer, view storefront.View) {
	st := newStyles(w)
	title := "All products"
	if view.Query.Term != "" {
		title = fmt.Sprintf("Search %q", view.Query.Term)
	}
	fmt.Fprintln(w, st.title.Render(title))

	if view.Error != "" {
		fmt.Fprintln(w, st.errMsg.Render("Search failed: "+view.Error))
	}
	page := view.Query.Page
	if page < 1 {
		page = 1
	}
	fmt.Fprintln(w, st.meta.Render(fmt.Sprintf("%d results · page %d of %d · sorted by %s",
		view.TotalResults, page, max(view.TotalPages, 1), sortName(view.Query.SortBy))))
	if view.DidYouMean != "" {
		fmt.Fprintln(w, st.hint.Render(fmt.Sprintf("Did you mean %q?", view.DidYouMean)))
	}
	fmt.Fprintln(w)

	if len(view.Results) == 0 {
		fmt.Fprintln(w, st.noData.Render("No products found."))
	}
	for i, p := range view.Results {
		writeProduct(w, st, i+1, p)
	}

	if len(view.Suggestions) > 0 {
		fmt.Fprintln(w, st.header.Render("Suggestions"))
		for _, s := range view.Suggestions {
			fmt.Fprintf(w, "  %s %s\n", s.Text,
				st.meta.Render(fmt.Sprintf("(%d results, similarity %.2f)", s.EstimatedResults, s.SimilarityScore)))
		}
		fmt.Fprintln(w)
	}

	writeFacets(w, st, "Categories", view.FilterGroups.Categories, view.Query.Categories)
	writeFacets(w, st, "Subcategories", view.FilterGroups.Subcategories, view.Query.Subcategories)
	writeFacets(w, st, "Labels", view.FilterGroups.Labels, view.Query.Labels)

	if view.DiscountPriceBounds.Max > 0 {
		state := "off"
		if view.IsDiscountFilterEnabled {
			state = "on"
		}
		fmt.Fprintf(w, "%s %s-%s of %s-%s (%s)\n",
			st.header.Render("Price"),
			formatPrice(view.DiscountPriceRange.Min), formatPrice(view.DiscountPriceRange.Max),
			formatPrice(view.DiscountPriceBounds.Min), formatPrice(view.DiscountPriceBounds.Max),
			state)
	}
}

func writeProduct(w io.Writer, st styles, rank int, p models.ProductSummary) {
	price := st.price.Render(formatPrice(p.DiscountPrice))
	if p.HasDiscount() {
		price += " " + st.strike.Render(formatPrice(p.Price))
	}
	fmt.Fprintf(w, "%2d. %s  %s\n", rank, st.name.Render(p.Name), price)

	var meta []string
	if p.Category != "" {
		path := p.Category
		if p.Subcategory != "" {
			path += " › " + p.Subcategory
		}
		meta = append(meta, path)
	}
	if p.Label != "" {
		meta = append(meta, p.Label)
	}
	if p.Condition != "" {
		meta = append(meta, p.Condition)
	}
	if p.AverageRating != nil {
		meta = append(meta, fmt.Sprintf("★ %.1f", *p.AverageRating))
	}
	if p.IsBestseller {
		meta = append(meta, "bestseller")
	}
	if len(meta) > 0 {
		fmt.Fprintf(w, "    %s\n", st.meta.Render(strings.Join(meta, " · ")))
	}
	if p.Description != "" {
		fmt.Fprintf(w, "    %s\n", utils.Truncate(p.Description, 100))
	}
	fmt.Fprintf(w, "    /products/%s\n\n", p.Slug)
}

func writeFacets(w io.Writer, st styles, title string, options []models.FacetOption, selected []string) {
	if len(options) == 0 {
		return
	}
	chosen := make(map[string]bool, len(selected))
	for _, s := range selected {
		chosen[s] = true
	}
	parts := make([]string, len(options))
	for i, o := range options {
		mark := " "
		if chosen[o.Name] {
			mark = "x"
		}
		parts[i] = fmt.Sprintf("[%s] %s (%d)", mark, o.Name, o.Count)
	}
	fmt.Fprintf(w, "%s %s\n", st.header.Render(title), strings.Join(parts, "  "))
}

func writeCompact(w io.Writer, items []models.ProductSummary) {
	for _, p := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Slug, formatPrice(p.DiscountPrice), p.Name)
	}
}

// WriteAutocomplete writes the dropdown state for a typed term.
func WriteAutocomplete(w io.Writer, term string, res models.AutocompleteResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, res)
	case OutputCompact:
		writeCompact(w, res.Results)
		return nil
	}
	st := newStyles(w)
	fmt.Fprintln(w, st.title.Render(fmt.Sprintf("Autocomplete %q", term)))
	if len(res.Results) == 0 {
		fmt.Fprintln(w, st.noData.Render("No matches."))
	}
	for _, p := range res.Results {
		fmt.Fprintf(w, "  %s  %s\n", st.name.Render(p.Name), st.price.Render(formatPrice(p.DiscountPrice)))
	}
	if res.DidYouMean != "" {
		fmt.Fprintln(w, st.hint.Render(fmt.Sprintf("Did you mean %q?", res.DidYouMean)))
	}
	return nil
}

// WriteSuggestions writes spelling suggestions.
func WriteSuggestions(w io.Writer, term string, suggestions []models.Suggestion, format OutputFormat) error {
	if format == OutputJSON {
		if suggestions == nil {
			suggestions = []models.Suggestion{}
		}
		return writeJSON(w, suggestions)
	}
	st := newStyles(w)
	if format != OutputCompact {
		fmt.Fprintln(w, st.title.Render(fmt.Sprintf("Suggestions for %q", term)))
		if len(suggestions) == 0 {
			fmt.Fprintln(w, st.noData.Render("No suggestions."))
		}
	}
	for _, s := range suggestions {
		if format == OutputCompact {
			fmt.Fprintf(w, "%s\t%.2f\t%d\n", s.Text, s.SimilarityScore, s.EstimatedResults)
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", st.name.Render(s.Text),
			st.meta.Render(fmt.Sprintf("similarity %.2f, ~%d results", s.SimilarityScore, s.EstimatedResults)))
	}
	return nil
}

// WriteStatus writes catalog status.
func WriteStatus(w io.Writer, status *catalog.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	st := newStyles(w)
	fmt.Fprintln(w, st.title.Render("Catalog status"))
	fmt.Fprintf(w, "Products:         %d (%d active)\n", status.Products, status.ActiveProducts)
	fmt.Fprintf(w, "Indexed products: %d\n", status.IndexedProducts)
	fmt.Fprintf(w, "Disk usage:       %s\n", FormatBytes(status.DiskUsageBytes))
	if status.DatabasePath != "" {
		fmt.Fprintf(w, "Database:         %s\n", status.DatabasePath)
	}
	if status.IndexPath != "" {
		fmt.Fprintf(w, "Index:            %s\n", status.IndexPath)
	}
	return nil
}

// FormatBytes renders n bytes with a binary unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatPrice(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func sortName(s models.SortBy) string {
	if s == "" {
		return string(models.SortRelevance)
	}
	return string(s)
}
