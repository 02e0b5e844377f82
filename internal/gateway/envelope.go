package gateway

// Item is one normalized result entry in an envelope.
type Item struct {
	// ID is the provider's stable identifier for the resource.
	ID string

	// Summary is a short display line for the caller.
	Summary string

	// Ref is a reference usable for follow-up retrieval (a message ID to pass
	// to get_message, an event link, and so on).
	Ref string
}

// ProviderResponse is the adapter-internal result shape an envelope is built
// from. It is never exposed across the gateway boundary.
type ProviderResponse struct {
	Items []Item

	// Total is the provider-reported number of available matches. Zero when
	// the provider reports no estimate.
	Total int64

	// HasMore is set when the provider signalled further pages beyond the
	// returned items but reported no total count.
	HasMore bool
}

// Envelope is the uniform, truncated result returned to the caller.
// Immutable once built.
type Envelope struct {
	Items     []Item
	Total     int64
	Returned  int
	Truncated bool
}

// ShapeRule is the per-tool display rule applied when building an envelope.
type ShapeRule struct {
	// MaxItems caps the number of returned items. Zero means no cap.
	MaxItems int

	// MaxSummaryLen trims each item's summary to a bounded length.
	// Zero means no trimming.
	MaxSummaryLen int
}

// BuildEnvelope shapes a provider response into the caller-visible envelope.
// Shaping is pure and deterministic: items keep their order, the rule only
// caps the count and trims summaries. The truncation flag is set exactly when
// the provider had more matches than the envelope returns.
func BuildEnvelope(resp *ProviderResponse, rule ShapeRule) *Envelope {
	items := resp.Items
	if rule.MaxItems > 0 && len(items) > rule.MaxItems {
		items = items[:rule.MaxItems]
	}

	shaped := make([]Item, len(items))
	for i, item := range items {
		item.Summary = trimSummary(item.Summary, rule.MaxSummaryLen)
		shaped[i] = item
	}

	total := resp.Total
	if total < int64(len(shaped)) {
		total = int64(len(shaped))
	}

	return &Envelope{
		Items:     shaped,
		Total:     total,
		Returned:  len(shaped),
		Truncated: resp.HasMore || total > int64(len(shaped)),
	}
}

func trimSummary(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
