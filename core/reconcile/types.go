package reconcile

import (
	"context"
	"fmt"
	"strings"

	"planner/core/series"
)

// OptimisticOwner marks an instance synthesized locally before the server confirmed it.
const OptimisticOwner = "optimistic"

// Partition names one independently cached collection of instances.
type Partition string

// SeriesPartition is the partition holding the instances of one series.
func SeriesPartition(seriesID string) Partition { return Partition("series:" + seriesID) }

// OwnerPartition is the partition holding every instance of one owner.
func OwnerPartition(ownerID string) Partition { return Partition("owner:" + ownerID) }

// Split returns the partition kind ("series" or "owner") and its id.
func (p Partition) Split() (kind, id string, err error) {
	kind, id, ok := strings.Cut(string(p), ":")
	if !ok || id == "" || (kind != "series" && kind != "owner") {
		return "", "", fmt.Errorf("reconcile: bad partition %q", string(p))
	}
	return kind, id, nil
}

// Remote performs mutations and reads against the authoritative server.
type Remote interface {
	CreateSeries(ctx context.Context, req series.CreateRequest) ([]series.Instance, error)
	UpdateInstance(ctx context.Context, req series.UpdateRequest) ([]series.Instance, error)
	DeleteInstance(ctx context.Context, req series.DeleteRequest) ([]string, error)
	ListInstances(ctx context.Context, p Partition) ([]series.Instance, error)
}

// Op is a mutation kind.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Mutation describes a mutation for the purpose of choosing a cache policy.
type Mutation struct {
	Op         Op
	Scope      series.Scope
	Recurring  bool
	RuleChange bool
}

// Optimistic reports whether the mutation touches exactly one row and cannot fan out.
func (m Mutation) Optimistic() bool {
	switch m.Op {
	case OpCreate:
		return !m.Recurring
	case OpUpdate:
		return m.Scope == series.ScopeThis && !m.RuleChange
	case OpDelete:
		return m.Scope == series.ScopeThis
	}
	return false
}

// Config holds client cache settings.
type Config struct {
	// FetchTimeoutSeconds bounds a partition refetch.
	FetchTimeoutSeconds int `mapstructure:"fetch_timeout_seconds" default:"10"`
	// TTLSeconds is how long a fetched partition stays fresh. Zero keeps it until invalidated.
	TTLSeconds int `mapstructure:"ttl_seconds" default:"300"`
	// ServerURL is the planner API base URL used by the client commands.
	ServerURL string `mapstructure:"server_url" default:"http://localhost:8080"`
}
