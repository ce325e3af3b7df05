package transform

import (
	"context"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/schema"
	"golang.org/x/sync/errgroup"
)

const (
	// UnknownRoute is the route of a validation with no route on either side
	UnknownRoute = "N/A"

	// rows processed between two cancellation checks
	cancelCheckInterval = 1024
	// below this many validation rows the join always runs sequentially
	minParallelRows = 2048
)

// TicketEntry is the typed view of a ticket row
type TicketEntry struct {
	User     string
	Tickets  int
	PassType *string
}

// ServiceEntry is the typed view of a service row
type ServiceEntry struct {
	RunID       string
	Route       string
	UsedTickets int
	Occupancy   float64
}

// TicketIndex groups ticket rows by normalized user identifier
type TicketIndex struct {
	byUser      map[string][]TicketEntry
	ticketsSold int
}

// First returns the first ticket row of the user. Later rows of the same user
// are kept in the index but never joined.
func (ix *TicketIndex) First(user string) (TicketEntry, bool) {
	if user == "" {
		return TicketEntry{}, false
	}
	entries := ix.byUser[user]
	if len(entries) == 0 {
		return TicketEntry{}, false
	}
	return entries[0], true
}

// Entries returns every ticket row of the user in export order
func (ix *TicketIndex) Entries(user string) []TicketEntry {
	return ix.byUser[user]
}

// Len returns the number of indexed users
func (ix *TicketIndex) Len() int {
	return len(ix.byUser)
}

// TicketsSold is the sum of the ticket counts of every ticket row
func (ix *TicketIndex) TicketsSold() int {
	return ix.ticketsSold
}

// ServiceIndex maps a run identifier to its last seen service row
type ServiceIndex struct {
	byRun map[string]ServiceEntry
}

// Lookup returns the service of a run identifier
func (ix *ServiceIndex) Lookup(runID string) (ServiceEntry, bool) {
	if runID == "" {
		return ServiceEntry{}, false
	}
	entry, ok := ix.byRun[runID]
	return entry, ok
}

// Len returns the number of indexed run identifiers
func (ix *ServiceIndex) Len() int {
	return len(ix.byRun)
}

// JoinResult is the outcome of joining the validations against both indexes
type JoinResult struct {
	Records        []models.CombinedRecord
	Dropped        int
	ServiceMatches int
	TicketMatches  int
}

// JoinEngine joins validation events against the ticket and service indexes
type JoinEngine struct {
	resolver *schema.Resolver
	workers  int
}

// NewJoinEngine creates a join engine. workers <= 1 joins sequentially.
func NewJoinEngine(resolver *schema.Resolver, workers int) *JoinEngine {
	return &JoinEngine{resolver: resolver, workers: workers}
}

// BuildTicketIndex indexes ticket rows by normalized user. Rows without a
// user still count towards the tickets sold.
func (e *JoinEngine) BuildTicketIndex(rows []models.RawRow) *TicketIndex {
	ix := &TicketIndex{byUser: make(map[string][]TicketEntry)}
	for _, row := range rows {
		entry := e.ticketEntry(row)
		ix.ticketsSold += entry.Tickets
		if entry.User == "" {
			continue
		}
		ix.byUser[entry.User] = append(ix.byUser[entry.User], entry)
	}
	return ix
}

func (e *JoinEngine) ticketEntry(row models.RawRow) TicketEntry {
	var entry TicketEntry
	if user, ok := e.resolver.String(row, schema.ColUser); ok {
		entry.User = normalizeUser(user)
	}
	if v, ok := e.resolver.Value(row, schema.ColTickets); ok {
		entry.Tickets = parseLeadingInt(v)
	}
	if pass, ok := e.resolver.String(row, schema.ColPassType); ok && pass != "" {
		entry.PassType = &pass
	}
	return entry
}

// BuildServiceIndex indexes service rows by trimmed run identifier. A repeated
// identifier replaces the earlier row.
func (e *JoinEngine) BuildServiceIndex(rows []models.RawRow) *ServiceIndex {
	ix := &ServiceIndex{byRun: make(map[string]ServiceEntry, len(rows))}
	for _, row := range rows {
		entry, ok := e.serviceEntry(row)
		if !ok {
			continue
		}
		ix.byRun[entry.RunID] = entry
	}
	return ix
}

func (e *JoinEngine) serviceEntry(row models.RawRow) (ServiceEntry, bool) {
	runID, ok := e.resolver.String(row, schema.ColRunID)
	if !ok {
		return ServiceEntry{}, false
	}
	entry := ServiceEntry{RunID: trimmed(runID)}
	if entry.RunID == "" {
		return ServiceEntry{}, false
	}
	if route, ok := e.resolver.String(row, schema.ColRoute); ok {
		entry.Route = route
	}
	if v, ok := e.resolver.Value(row, schema.ColUsedTickets); ok {
		entry.UsedTickets = parseLeadingInt(v)
	}
	if v, ok := e.resolver.Value(row, schema.ColOccupancy); ok {
		entry.Occupancy = parseOccupancy(v)
	}
	return entry, true
}

// Join produces one combined record per validation row with a valid date, in
// input order. Both indexes must be fully built and are only read.
func (e *JoinEngine) Join(ctx context.Context, validations []models.RawRow, tickets *TicketIndex, services *ServiceIndex) (*JoinResult, error) {
	slots := make([]joinSlot, len(validations))

	if e.workers <= 1 || len(validations) < minParallelRows {
		if err := e.joinRange(ctx, validations, slots, 0, len(validations), tickets, services); err != nil {
			return nil, err
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		chunk := (len(validations) + e.workers - 1) / e.workers
		for start := 0; start < len(validations); start += chunk {
			start, end := start, min(start+chunk, len(validations))
			g.Go(func() error {
				return e.joinRange(gctx, validations, slots, start, end, tickets, services)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	result := &JoinResult{Records: make([]models.CombinedRecord, 0, len(validations))}
	for _, slot := range slots {
		if !slot.kept {
			result.Dropped++
			continue
		}
		if slot.serviceMatch {
			result.ServiceMatches++
		}
		if slot.ticketMatch {
			result.TicketMatches++
		}
		result.Records = append(result.Records, slot.record)
	}
	return result, nil
}

type joinSlot struct {
	record       models.CombinedRecord
	kept         bool
	serviceMatch bool
	ticketMatch  bool
}

// joinRange fills slots[start:end]; each goroutine owns a disjoint range
func (e *JoinEngine) joinRange(ctx context.Context, rows []models.RawRow, slots []joinSlot, start, end int, tickets *TicketIndex, services *ServiceIndex) error {
	for i := start; i < end; i++ {
		if (i-start)%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		slots[i] = e.combine(rows[i], tickets, services)
	}
	return nil
}

func (e *JoinEngine) combine(row models.RawRow, tickets *TicketIndex, services *ServiceIndex) joinSlot {
	date := models.InvalidDate
	if v, ok := e.resolver.Value(row, schema.ColDate); ok {
		date = NormalizeDate(v)
	}
	if date == models.InvalidDate {
		return joinSlot{}
	}

	record := models.CombinedRecord{Date: date, UserType: models.UserTypeUnknown, Validated: models.ValidationNotConfirmed}
	if runID, ok := e.resolver.String(row, schema.ColRunID); ok {
		record.RunID = trimmed(runID)
	}
	if user, ok := e.resolver.String(row, schema.ColUser); ok {
		record.User = normalizeUser(user)
	}
	if v, ok := e.resolver.Value(row, schema.ColUserType); ok {
		record.UserType = NormalizeUserType(v)
	}
	if v, ok := e.resolver.Value(row, schema.ColValidated); ok {
		record.Validated = parseValidation(v)
	}

	slot := joinSlot{kept: true}

	service, hasService := services.Lookup(record.RunID)
	record.Route = e.route(row, service, hasService)
	if hasService {
		occupancy, used := service.Occupancy, service.UsedTickets
		record.Occupancy = &occupancy
		record.UsedTickets = &used
		slot.serviceMatch = true
	}

	if ticket, ok := tickets.First(record.User); ok {
		count := ticket.Tickets
		record.Tickets = &count
		record.PassType = ticket.PassType
		slot.ticketMatch = true
	}

	slot.record = record
	return slot
}

// route prefers the service route, then the validation row's own route
func (e *JoinEngine) route(row models.RawRow, service ServiceEntry, hasService bool) string {
	if hasService && service.Route != "" {
		return service.Route
	}
	if own, ok := e.resolver.String(row, schema.ColRoute); ok && own != "" {
		return own
	}
	return UnknownRoute
}
