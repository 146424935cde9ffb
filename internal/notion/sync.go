// Package notion syncs clients and offers from a Notion workspace into
// the creative cache.
package notion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/marktr/adbot/internal/creative"
)

// activeStages are the pipeline stages shown to the operator; everything
// else (inactive, churned) is filtered out during sync.
var activeStages = map[string]bool{
	"Onboarding":        true,
	"System Setup":      true,
	"Offer and assets":  true,
	"Campaign launch":   true,
	"Launch/active ads": true,
	"Optimization":      true,
	"Ads Paused":        true,
	"Coaching ended":    true,
}

// skipNames are internal workspace pages that are not real clients.
var skipNames = map[string]bool{
	"MARKTR™":               true,
	"New Client [TEMPLATE]": true,
}

// maxDepth bounds the recursive block-children traversal.
const maxDepth = 5

// queryFunc and childrenFunc abstract the two Notion calls so tests can
// stub pagination.
type queryFunc func(ctx context.Context, dbID string, cursor notionapi.Cursor) (*notionapi.DatabaseQueryResponse, error)
type childrenFunc func(ctx context.Context, blockID string, cursor notionapi.Cursor) (*notionapi.GetChildrenResponse, error)

// Syncer pulls client and offer data out of the workspace.
type Syncer struct {
	clientsDBID string
	cache       *creative.Cache
	logger      *slog.Logger
	now         func() time.Time

	query    queryFunc
	children childrenFunc
}

// NewSyncer creates a syncer backed by the Notion API.
func NewSyncer(apiKey, clientsDBID string, cache *creative.Cache, logger *slog.Logger) *Syncer {
	client := notionapi.NewClient(notionapi.Token(apiKey))
	return &Syncer{
		clientsDBID: clientsDBID,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
		query: func(ctx context.Context, dbID string, cursor notionapi.Cursor) (*notionapi.DatabaseQueryResponse, error) {
			return client.Database.Query(ctx, notionapi.DatabaseID(dbID), &notionapi.DatabaseQueryRequest{
				PageSize:    100,
				StartCursor: cursor,
			})
		},
		children: func(ctx context.Context, blockID string, cursor notionapi.Cursor) (*notionapi.GetChildrenResponse, error) {
			return client.Block.GetChildren(ctx, notionapi.BlockID(blockID), &notionapi.Pagination{
				PageSize:    100,
				StartCursor: cursor,
			})
		},
	}
}

// ClientSummary reports the result of a client sync.
type ClientSummary struct {
	Added   int
	Updated int
	Removed int
	Total   int
}

// SyncClients queries the clients database and replaces the cached
// client set, keeping per-client metadata that only later syncs fill in.
func (s *Syncer) SyncClients(ctx context.Context) (*ClientSummary, error) {
	pages, err := s.queryAll(ctx, s.clientsDBID)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients database: %w", err)
	}

	state := s.cache.Load()
	oldClients := state.Clients
	newClients := make(map[string]*creative.Client)

	summary := &ClientSummary{}
	for _, page := range pages {
		name := titleOf(page.Properties, "Business Name")
		if name == "" || skipNames[name] {
			continue
		}
		stage := selectOf(page.Properties, "Stage")
		if !activeStages[stage] {
			continue
		}

		slug := creative.Slugify(name)
		entry := &creative.Client{
			Name:         name,
			NotionPageID: string(page.ID),
			Stage:        stage,
			LastUpdated:  s.now().UTC().Format(time.RFC3339),
		}
		if old, ok := oldClients[slug]; ok {
			entry.ResourcesDBID = old.ResourcesDBID
			if old.Stage != stage {
				summary.Updated++
			}
		} else {
			summary.Added++
		}
		newClients[slug] = entry
	}

	for slug := range oldClients {
		if _, ok := newClients[slug]; !ok {
			summary.Removed++
		}
	}
	summary.Total = len(newClients)

	state.Clients = newClients
	if err := s.cache.Save(state); err != nil {
		return nil, err
	}

	s.logger.Info("client sync complete",
		"total", summary.Total,
		"added", summary.Added,
		"updated", summary.Updated,
		"removed", summary.Removed,
	)
	return summary, nil
}

// OfferSummary reports the result of an offer sync for one client.
type OfferSummary struct {
	Total             int
	IntroOffersPageID string
}

// SyncOffers locates the client's "Intro Offer" page, extracts its text
// and re-parses the cached offer list.
func (s *Syncer) SyncOffers(ctx context.Context, clientSlug string) (*OfferSummary, error) {
	state := s.cache.Load()
	client, ok := state.Clients[clientSlug]
	if !ok {
		return nil, fmt.Errorf("client %q not found in cache", clientSlug)
	}

	offers := state.Offers[clientSlug]
	if offers == nil {
		offers = &creative.ClientOffers{}
		state.Offers[clientSlug] = offers
	}

	pageID := offers.IntroOffersPageID
	if pageID == "" {
		pageID, ok = s.findIntroOfferPage(ctx, client.NotionPageID)
		if !ok {
			return nil, fmt.Errorf("no 'Intro Offer' page found for %s", client.Name)
		}
	}

	text, err := s.allText(ctx, pageID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read intro offer page: %w", err)
	}

	parsed := ParseOffers(text)
	if len(parsed) == 0 {
		return nil, fmt.Errorf("could not parse any offers from the Intro Offer page")
	}

	offers.IntroOffersPageID = pageID
	offers.CachedOffers = parsed
	if err := s.cache.Save(state); err != nil {
		return nil, err
	}

	s.logger.Info("offer sync complete", "client", clientSlug, "total", len(parsed))
	return &OfferSummary{Total: len(parsed), IntroOffersPageID: pageID}, nil
}

// queryAll walks database pagination to completion.
func (s *Syncer) queryAll(ctx context.Context, dbID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor
	for {
		resp, err := s.query(ctx, dbID, cursor)
		if err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}

// childrenAll walks block-children pagination to completion.
func (s *Syncer) childrenAll(ctx context.Context, blockID string) ([]notionapi.Block, error) {
	var blocks []notionapi.Block
	var cursor notionapi.Cursor
	for {
		resp, err := s.children(ctx, blockID, cursor)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, resp.Results...)
		if !resp.HasMore {
			return blocks, nil
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
}

// findIntroOfferPage looks for an "Intro Offer" child page directly under
// the client page, or inside a "Resources" child database.
func (s *Syncer) findIntroOfferPage(ctx context.Context, clientPageID string) (string, bool) {
	blocks, err := s.childrenAll(ctx, clientPageID)
	if err != nil {
		s.logger.Warn("failed to list client page blocks", "error", err)
		return "", false
	}

	for _, block := range blocks {
		switch b := block.(type) {
		case *notionapi.ChildPageBlock:
			if strings.Contains(strings.ToLower(b.ChildPage.Title), "intro offer") {
				return string(b.ID), true
			}
		case *notionapi.ChildDatabaseBlock:
			if strings.Contains(strings.ToLower(b.ChildDatabase.Title), "resources") {
				if id, ok := s.searchResourcesDB(ctx, string(b.ID)); ok {
					return id, true
				}
			}
		}
	}
	return "", false
}

// searchResourcesDB queries a Resources database for an "Intro Offer" row.
func (s *Syncer) searchResourcesDB(ctx context.Context, dbID string) (string, bool) {
	resp, err := s.query(ctx, dbID, "")
	if err != nil {
		s.logger.Warn("failed to search resources database", "db_id", dbID, "error", err)
		return "", false
	}
	for _, page := range resp.Results {
		name := titleOf(page.Properties, "Name")
		if strings.Contains(strings.ToLower(name), "intro offer") {
			return string(page.ID), true
		}
	}
	return "", false
}

// allText recursively extracts plain text from every block under id,
// following nested children and synced-block references, depth-capped.
func (s *Syncer) allText(ctx context.Context, id string, depth int) (string, error) {
	if depth > maxDepth {
		return "", nil
	}

	blocks, err := s.childrenAll(ctx, id)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range blocks {
		b.WriteString(blockText(block))

		if block.GetHasChildren() {
			nested, err := s.allText(ctx, string(block.GetID()), depth+1)
			if err != nil {
				return "", err
			}
			b.WriteString(nested)
		}
		if sb, ok := block.(*notionapi.SyncedBlock); ok {
			if from := sb.SyncedBlock.SyncedFrom; from != nil && from.BlockID != "" {
				ref, err := s.allText(ctx, string(from.BlockID), depth+1)
				if err != nil {
					return "", err
				}
				b.WriteString(ref)
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// blockText extracts the plain text carried directly by one block.
func blockText(block notionapi.Block) string {
	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		return richText(b.Paragraph.RichText)
	case *notionapi.Heading1Block:
		return richText(b.Heading1.RichText)
	case *notionapi.Heading2Block:
		return richText(b.Heading2.RichText)
	case *notionapi.Heading3Block:
		return richText(b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		return richText(b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		return richText(b.NumberedListItem.RichText)
	case *notionapi.ToDoBlock:
		return richText(b.ToDo.RichText)
	case *notionapi.ToggleBlock:
		return richText(b.Toggle.RichText)
	case *notionapi.QuoteBlock:
		return richText(b.Quote.RichText)
	case *notionapi.CalloutBlock:
		return richText(b.Callout.RichText)
	case *notionapi.ChildPageBlock:
		return b.ChildPage.Title
	default:
		return ""
	}
}

func richText(parts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range parts {
		b.WriteString(rt.PlainText)
	}
	return b.String()
}

// titleOf joins the plain text of a title property.
func titleOf(props notionapi.Properties, name string) string {
	prop, ok := props[name]
	if !ok {
		return ""
	}
	title, ok := prop.(*notionapi.TitleProperty)
	if !ok {
		return ""
	}
	return strings.TrimSpace(richText(title.Title))
}

// selectOf returns the selected option name of a select property.
func selectOf(props notionapi.Properties, name string) string {
	prop, ok := props[name]
	if !ok {
		return ""
	}
	sel, ok := prop.(*notionapi.SelectProperty)
	if !ok {
		return ""
	}
	return sel.Select.Name
}
