package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Dosada05/stage-engine/models"
)

type memoryData struct {
	tournaments    map[string]models.Tournament
	stages         map[string]models.StageDefinition
	groupStates    map[string]*models.GroupRuntimeState
	playoffStates  map[string]models.PlayoffsRuntimeState
	groupMatches   map[string]models.MatchRecord
	bracketMatches map[string][]models.BracketMatch
}

func newMemoryData() *memoryData {
	return &memoryData{
		tournaments:    make(map[string]models.Tournament),
		stages:         make(map[string]models.StageDefinition),
		groupStates:    make(map[string]*models.GroupRuntimeState),
		playoffStates:  make(map[string]models.PlayoffsRuntimeState),
		groupMatches:   make(map[string]models.MatchRecord),
		bracketMatches: make(map[string][]models.BracketMatch),
	}
}

// clone copies every record; slices held by stored values are never mutated
// in place, so value copies of them are enough.
func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for k, v := range d.tournaments {
		c.tournaments[k] = v
	}
	for k, v := range d.stages {
		c.stages[k] = v
	}
	for k, v := range d.groupStates {
		c.groupStates[k] = v.Clone()
	}
	for k, v := range d.playoffStates {
		c.playoffStates[k] = v
	}
	for k, v := range d.groupMatches {
		c.groupMatches[k] = v
	}
	for k, v := range d.bracketMatches {
		c.bracketMatches[k] = append([]models.BracketMatch(nil), v...)
	}
	return c
}

// MemoryStore keeps everything in process. Transactions hold one mutex for
// their whole duration and restore a snapshot when fn fails.
type MemoryStore struct {
	mu   *sync.Mutex
	data **memoryData
	inTx bool

	// failNext, when set, makes the next CreateMatchday fail after validating.
	failNext *error
}

func NewMemoryStore() *MemoryStore {
	data := newMemoryData()
	var failNext error
	return &MemoryStore{mu: &sync.Mutex{}, data: &data, failNext: &failNext}
}

// FailNextMatchdayInsert makes the next CreateMatchday return err without
// writing anything. Used to exercise rollback paths.
func (s *MemoryStore) FailNextMatchdayInsert(err error) {
	unlock := s.lock()
	defer unlock()
	*s.failNext = err
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) d() *memoryData { return *s.data }

func (s *MemoryStore) Tournaments() TournamentRepository { return &memoryTournamentRepository{s: s} }
func (s *MemoryStore) Stages() StageRepository           { return &memoryStageRepository{s: s} }
func (s *MemoryStore) Matches() MatchRepository          { return &memoryMatchRepository{s: s} }

func (s *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) (err error) {
	if s.inTx {
		return fn(ctx, s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d().clone()
	defer func() {
		if p := recover(); p != nil {
			*s.data = snapshot
			panic(p)
		}
		if err != nil {
			*s.data = snapshot
		}
	}()

	tx := &MemoryStore{mu: s.mu, data: s.data, inTx: true, failNext: s.failNext}
	return fn(ctx, tx)
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

type memoryTournamentRepository struct {
	s *MemoryStore
}

func (r *memoryTournamentRepository) Create(ctx context.Context, t *models.Tournament, stages []models.StageDefinition) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.d()
	if _, ok := d.tournaments[t.ID]; ok {
		return ErrTournamentConflict
	}
	stored := *t
	stored.TeamIDs = append([]string(nil), t.TeamIDs...)
	stored.Stages = nil
	d.tournaments[t.ID] = stored

	// Rows land one at a time like the SQL store; only WithTx undoes a partial write.
	for _, st := range stages {
		if _, ok := d.stages[st.ID]; ok {
			return fmt.Errorf("%w: stage %s", ErrTournamentConflict, st.ID)
		}
		st.TournamentID = t.ID
		d.stages[st.ID] = st
	}
	return nil
}

func (r *memoryTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	unlock := r.s.lock()
	defer unlock()
	t, ok := r.s.d().tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	t.TeamIDs = append([]string(nil), t.TeamIDs...)
	return &t, nil
}

func (r *memoryTournamentRepository) UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.d()
	t, ok := d.tournaments[id]
	if !ok {
		return ErrTournamentNotFound
	}
	t.Status = status
	d.tournaments[id] = t
	return nil
}

type memoryStageRepository struct {
	s *MemoryStore
}

func (r *memoryStageRepository) GetByID(ctx context.Context, stageID string) (*models.StageDefinition, error) {
	unlock := r.s.lock()
	defer unlock()
	st, ok := r.s.d().stages[stageID]
	if !ok {
		return nil, ErrStageNotFound
	}
	return &st, nil
}

func (r *memoryStageRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.StageDefinition, error) {
	unlock := r.s.lock()
	defer unlock()
	stages := make([]models.StageDefinition, 0)
	for _, st := range r.s.d().stages {
		if st.TournamentID == tournamentID {
			stages = append(stages, st)
		}
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].Order < stages[j].Order })
	return stages, nil
}

// LockStage only checks existence: a memory transaction already holds the
// store-wide mutex.
func (r *memoryStageRepository) LockStage(ctx context.Context, stageID string) error {
	unlock := r.s.lock()
	defer unlock()
	if _, ok := r.s.d().stages[stageID]; !ok {
		return ErrStageNotFound
	}
	return nil
}

func (r *memoryStageRepository) GetGroupState(ctx context.Context, stageID string) (*models.GroupRuntimeState, error) {
	unlock := r.s.lock()
	defer unlock()
	s, ok := r.s.d().groupStates[stageID]
	if !ok {
		return nil, ErrRuntimeStateNotFound
	}
	return s.Clone(), nil
}

func (r *memoryStageRepository) CreateGroupState(ctx context.Context, state *models.GroupRuntimeState) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.d()
	if _, ok := d.groupStates[state.StageID]; ok {
		return ErrRuntimeStateExists
	}
	d.groupStates[state.StageID] = state.Clone()
	return nil
}

func (r *memoryStageRepository) UpdateGroupState(ctx context.Context, state *models.GroupRuntimeState) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.d()
	if _, ok := d.groupStates[state.StageID]; !ok {
		return ErrRuntimeStateNotFound
	}
	d.groupStates[state.StageID] = state.Clone()
	return nil
}

func (r *memoryStageRepository) GetPlayoffsState(ctx context.Context, stageID string) (*models.PlayoffsRuntimeState, error) {
	unlock := r.s.lock()
	defer unlock()
	s, ok := r.s.d().playoffStates[stageID]
	if !ok {
		return nil, ErrRuntimeStateNotFound
	}
	s.AdvancingTeamIDs = append([]string(nil), s.AdvancingTeamIDs...)
	return &s, nil
}

func (r *memoryStageRepository) CreatePlayoffsState(ctx context.Context, state *models.PlayoffsRuntimeState) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.d()
	if _, ok := d.playoffStates[state.StageID]; ok {
		return ErrRuntimeStateExists
	}
	stored := *state
	stored.AdvancingTeamIDs = append([]string(nil), state.AdvancingTeamIDs...)
	d.playoffStates[state.StageID] = stored
	return nil
}

type memoryMatchRepository struct {
	s *MemoryStore
}

func (r *memoryMatchRepository) CreateMatchday(ctx context.Context, matches []models.MatchRecord) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.d()

	for _, m := range matches {
		for _, existing := range d.groupMatches {
			if existing.StageID == m.StageID && existing.MatchNumber == m.MatchNumber {
				return ErrMatchdayExists
			}
		}
	}
	if err := *r.s.failNext; err != nil {
		*r.s.failNext = nil
		return err
	}
	for _, m := range matches {
		d.groupMatches[m.ID] = m
	}
	return nil
}

func (r *memoryMatchRepository) MatchdayExists(ctx context.Context, stageID string, matchday int) (bool, error) {
	unlock := r.s.lock()
	defer unlock()
	for _, m := range r.s.d().groupMatches {
		if m.StageID == stageID && m.Matchday == matchday {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryMatchRepository) ListByStage(ctx context.Context, stageID string, matchday *int) ([]models.MatchRecord, error) {
	unlock := r.s.lock()
	defer unlock()
	matches := make([]models.MatchRecord, 0)
	for _, m := range r.s.d().groupMatches {
		if m.StageID != stageID || (matchday != nil && m.Matchday != *matchday) {
			continue
		}
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].MatchNumber < matches[j].MatchNumber })
	return matches, nil
}

func (r *memoryMatchRepository) GetByID(ctx context.Context, id string) (*models.MatchRecord, error) {
	unlock := r.s.lock()
	defer unlock()
	m, ok := r.s.d().groupMatches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return &m, nil
}

func (r *memoryMatchRepository) RecordResult(ctx context.Context, id string, team1Score, team2Score int) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.d()
	m, ok := d.groupMatches[id]
	if !ok {
		return ErrMatchNotFound
	}
	if m.IsComplete {
		return ErrMatchCompleted
	}
	m.Team1Score, m.Team2Score = &team1Score, &team2Score
	m.IsComplete = true
	d.groupMatches[id] = m
	return nil
}

func (r *memoryMatchRepository) CreateBracketMatches(ctx context.Context, matches []*models.BracketMatch) error {
	if len(matches) == 0 {
		return nil
	}
	unlock := r.s.lock()
	defer unlock()
	d := r.s.d()
	stageID := matches[0].StageID
	if len(d.bracketMatches[stageID]) > 0 {
		return ErrBracketMatchesConflict
	}
	stored := make([]models.BracketMatch, len(matches))
	for i, m := range matches {
		stored[i] = *m
	}
	d.bracketMatches[stageID] = stored
	return nil
}

func (r *memoryMatchRepository) ListBracketMatches(ctx context.Context, stageID string) ([]models.BracketMatch, error) {
	unlock := r.s.lock()
	defer unlock()
	return append([]models.BracketMatch{}, r.s.d().bracketMatches[stageID]...), nil
}
