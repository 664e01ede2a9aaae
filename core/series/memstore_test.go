package series

import (
	"context"
	"errors"
	"sort"
)

// memStore is an in-memory Store. Transactions copy the maps and restore
// them when fn fails.
type memStore struct {
	instances map[string]Instance
	series    map[string]Series

	failDelete error
	failUpsert error
}

func newMemStore() *memStore {
	return &memStore{instances: map[string]Instance{}, series: map[string]Series{}}
}

func (m *memStore) GetInstance(_ context.Context, id string) (*Instance, error) {
	inst, ok := m.instances[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &inst, nil
}

func (m *memStore) ListInstances(_ context.Context, seriesID string) ([]Instance, error) {
	var out []Instance
	for _, inst := range m.instances {
		if inst.SeriesMasterID != nil && *inst.SeriesMasterID == seriesID {
			out = append(out, inst)
		}
	}
	sortInstances(out)
	return out, nil
}

func (m *memStore) ListOwnerInstances(_ context.Context, ownerID string) ([]Instance, error) {
	var out []Instance
	for _, inst := range m.instances {
		if inst.OwnerID == ownerID {
			out = append(out, inst)
		}
	}
	sortInstances(out)
	return out, nil
}

func (m *memStore) UpsertInstances(_ context.Context, instances []Instance) error {
	if m.failUpsert != nil {
		return m.failUpsert
	}
	for _, inst := range instances {
		m.instances[inst.ID] = inst
	}
	return nil
}

func (m *memStore) DeleteInstances(_ context.Context, ids []string) error {
	if m.failDelete != nil {
		return m.failDelete
	}
	for _, id := range ids {
		delete(m.instances, id)
	}
	return nil
}

func (m *memStore) GetSeries(_ context.Context, id string) (*Series, error) {
	s, ok := m.series[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *memStore) ListSeries(_ context.Context) ([]Series, error) {
	out := make([]Series, 0, len(m.series))
	for _, s := range m.series {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) SaveSeries(_ context.Context, s *Series) error {
	if s == nil {
		return errors.New("nil series")
	}
	m.series[s.ID] = *s
	return nil
}

func (m *memStore) Transaction(_ context.Context, fn func(tx Store) error) error {
	instances := make(map[string]Instance, len(m.instances))
	for k, v := range m.instances {
		instances[k] = v
	}
	seriesCopy := make(map[string]Series, len(m.series))
	for k, v := range m.series {
		seriesCopy[k] = v
	}
	if err := fn(m); err != nil {
		m.instances, m.series = instances, seriesCopy
		return err
	}
	return nil
}
