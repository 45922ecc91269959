package youtube

import "context"

// SubscriptionPage is one page of a subscription listing.
type SubscriptionPage struct {
	Items         []Subscription
	NextPageToken string
}

// PageFunc fetches the page identified by pageToken. The empty token is the
// first page.
type PageFunc func(ctx context.Context, pageToken string) (SubscriptionPage, error)

// SubscriptionPager walks a paginated subscription listing one page at a
// time. A failed Next leaves the pager where it was, so it can be retried.
type SubscriptionPager struct {
	fetch PageFunc
	token string
	done  bool
}

func NewSubscriptionPager(fetch PageFunc) *SubscriptionPager {
	return &SubscriptionPager{fetch: fetch}
}

// Next returns the next page of subscriptions. Once Done reports true it
// returns nil without calling the provider.
func (p *SubscriptionPager) Next(ctx context.Context) ([]Subscription, error) {
	if p.done {
		return nil, nil
	}
	page, err := p.fetch(ctx, p.token)
	if err != nil {
		return nil, err
	}
	p.token = page.NextPageToken
	p.done = page.NextPageToken == ""
	return page.Items, nil
}

// Done reports whether the provider has returned its last page.
func (p *SubscriptionPager) Done() bool {
	return p.done
}

// Reset rewinds the pager to the first page.
func (p *SubscriptionPager) Reset() {
	p.token = ""
	p.done = false
}

// All drains the pager from its current position.
func (p *SubscriptionPager) All(ctx context.Context) ([]Subscription, error) {
	var all []Subscription
	for !p.Done() {
		items, err := p.Next(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	return all, nil
}
