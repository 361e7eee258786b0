// Package terminal renders search results as styled markdown on a text
// terminal. It implements the result and pager views and an in-memory
// address bar for the history sync.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/domain/fragment"
)

type styles struct {
	loading   lipgloss.Style
	item      lipgloss.Style
	index     lipgloss.Style
	more      lipgloss.Style
	nothing   lipgloss.Style
	subscribe lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		loading: r.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true),
		item: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		index: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")),
		more: r.NewStyle().
			Foreground(lipgloss.Color("33")).
			Margin(1, 0, 0, 0),
		nothing: r.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0),
		subscribe: r.NewStyle().
			Foreground(lipgloss.Color("32")),
	}
}

// View writes results to out. Items are sanitized, converted to markdown
// and kept so the current result list can be inspected.
type View struct {
	mu        sync.Mutex
	out       io.Writer
	styles    styles
	policy    *bluemonday.Policy
	md        *converter.Converter
	domain    string
	loading   bool
	items     []string
	remaining int
	nothing   bool
	subscribe string

	logger *zap.Logger
}

// Option configures a View.
type Option func(*View)

// WithDomain resolves relative links in result items against domain.
func WithDomain(domain string) Option {
	return func(v *View) { v.domain = domain }
}

// New creates a View writing to out.
func New(out io.Writer, logger *zap.Logger, opts ...Option) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &View{
		out:    out,
		styles: newStyles(lipgloss.NewRenderer(out)),
		policy: bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		logger: logger,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// ShowLoading shows the loading indicator.
func (v *View) ShowLoading() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loading {
		return
	}
	v.loading = true
	v.println(v.styles.loading.Render("Searching..."))
}

// HideLoading hides the loading indicator.
func (v *View) HideLoading() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
}

// RenderResults replaces the result list.
func (v *View) RenderResults(items []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = v.items[:0]
	v.nothing = false
	v.appendLocked(items)
}

// AppendResults adds a page to the result list.
func (v *View) AppendResults(items []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.appendLocked(items)
}

// RenderSubscribe shows the subscribe widget of the current query.
func (v *View) RenderSubscribe(widget string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.subscribe = strings.TrimSpace(fragment.Text(v.policy.Sanitize(widget)))
	if v.subscribe != "" {
		v.println(v.styles.subscribe.Render("[" + v.subscribe + "]"))
	}
}

// ShowLoadMore shows how many results are left.
func (v *View) ShowLoadMore(remaining int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.remaining = remaining
	v.nothing = false
	v.println(v.styles.more.Render(fmt.Sprintf("%d more results", remaining)))
}

// ShowNothingFound replaces the load-more control with a notice.
func (v *View) ShowNothingFound() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.remaining = 0
	v.nothing = true
	v.println(v.styles.nothing.Render("Nothing found."))
}

// HideLoadMore removes the load-more control.
func (v *View) HideLoadMore() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.remaining = 0
}

// Items returns the markdown of the rendered results.
func (v *View) Items() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, len(v.items))
	copy(out, v.items)
	return out
}

// Loading reports whether the loading indicator is shown.
func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// Remaining is the count shown on the load-more control, 0 when hidden.
func (v *View) Remaining() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.remaining
}

// NothingFound reports whether the nothing-found notice is shown.
func (v *View) NothingFound() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.nothing
}

// Subscribe returns the text of the subscribe widget.
func (v *View) Subscribe() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.subscribe
}

func (v *View) appendLocked(items []string) {
	for _, raw := range items {
		md := v.markdown(raw)
		v.items = append(v.items, md)
		num := v.styles.index.Render(fmt.Sprintf("%d.", len(v.items)))
		v.println(lipgloss.JoinHorizontal(lipgloss.Top, num, " ", v.styles.item.Render(md)))
	}
}

// markdown converts an item to markdown, falling back to its plain text.
func (v *View) markdown(raw string) string {
	clean := v.policy.Sanitize(raw)
	var opts []converter.ConvertOptionFunc
	if v.domain != "" {
		opts = append(opts, converter.WithDomain(v.domain))
	}
	md, err := v.md.ConvertString(clean, opts...)
	if err == nil && strings.TrimSpace(md) != "" {
		return strings.TrimSpace(md)
	}
	if err != nil {
		v.logger.Debug("Markdown conversion failed", zap.Error(err))
	}
	return strings.TrimSpace(fragment.Text(clean))
}

func (v *View) println(s string) {
	if v.out == nil {
		return
	}
	if _, err := fmt.Fprintln(v.out, s); err != nil {
		v.logger.Debug("Write failed", zap.Error(err))
	}
}
