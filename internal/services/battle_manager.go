package services

import (
	"context"
	"log"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spacesugam/RA/internal/config"
	"github.com/spacesugam/RA/internal/models"
	"github.com/spacesugam/RA/internal/security"
)

// Broadcaster is the connection-facing surface the manager needs: liveness
// checks, battle membership, and message delivery. Hub implements it.
type Broadcaster interface {
	IsLive(clientID string) bool
	Join(battleID, clientID string)
	Leave(battleID, clientID string)
	DropBattle(battleID string)
	BroadcastToBattle(battleID string, message *models.WSMessage)
	SendTo(clientID string, message *models.WSMessage)
}

// liveBattle pairs the battle state with its single-purpose timers. At most
// one timer per purpose is ever outstanding; arming is cancel-then-set.
type liveBattle struct {
	*models.Battle
	roundTimer *ActionTimer
	botTimer   *ActionTimer
	purgeTimer *ActionTimer

	// reaction ID → expiry timer; entries are released on expiry, on
	// feed trim, and on purge.
	reactionTimers map[string]*ActionTimer
}

// BattleManager owns the two pieces of process-wide mutable state: the
// directory of live battles and the matchmaking queue. A single mutex
// guards both, so every inbound event, timer firing, and post-oracle
// continuation mutates battle state atomically. Continuations that resume
// after an oracle or store call re-look their battle up by ID and re-check
// status before touching it; holding a battle pointer across a suspension
// is never trusted.
type BattleManager struct {
	battles  map[string]*liveBattle
	queue    *Matchmaker
	hub      Broadcaster
	oracle   Oracle
	resolver *ResultResolver
	store    *Store
	metrics  *Metrics

	mu sync.Mutex
}

func NewBattleManager(hub Broadcaster, oracle Oracle, resolver *ResultResolver, store *Store, metrics *Metrics) *BattleManager {
	return &BattleManager{
		battles:  make(map[string]*liveBattle),
		queue:    NewMatchmaker(),
		hub:      hub,
		oracle:   oracle,
		resolver: resolver,
		store:    store,
		metrics:  metrics,
	}
}

// BattleSummary is the read-only listing view of an active battle.
type BattleSummary struct {
	ID             string   `json:"id"`
	TopicLabel     string   `json:"topicLabel"`
	Players        []string `json:"players"`
	SpectatorCount int      `json:"spectatorCount"`
	SpectatorCap   int      `json:"spectatorCap"`
	Round          int      `json:"round"`
	MaxRounds      int      `json:"maxRounds"`
}

// playerView is the public shape of a participant inside a snapshot.
type playerView struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	IsBot bool        `json:"isBot"`
	Side  models.Side `json:"side"`
}

// battleSnapshot is the full state sync sent on battle start, resume, and
// spectate admission. JoinedAt lets spectators distinguish pre-join
// history from live updates.
type battleSnapshot struct {
	ID             string              `json:"id"`
	Topic          *models.Topic       `json:"topic"`
	Players        []playerView        `json:"players"`
	Round          int                 `json:"round"`
	MaxRounds      int                 `json:"maxRounds"`
	RoundStart     time.Time           `json:"roundStart"`
	RoundEndsAt    time.Time           `json:"roundEndsAt"`
	Status         models.BattleStatus `json:"status"`
	Lines          []models.Line       `json:"lines"`
	Reactions      []models.Reaction   `json:"reactions"`
	SpectatorCount int                 `json:"spectatorCount"`
	SpectatorCap   int                 `json:"spectatorCap"`
	Result         *models.Result      `json:"result,omitempty"`
	JoinedAt       *time.Time          `json:"joinedAt,omitempty"`
}

// ---------------------------------------------------------------------------
// Queue entry points
// ---------------------------------------------------------------------------

// JoinQueue handles a join-queue event. If the caller's origin token
// matches a participant in an active battle, the stale connection handle
// is rebound and the battle state is resumed instead of queuing (at most
// one active battle per origin). Duplicate or dead-handle enqueues are
// no-ops.
func (m *BattleManager) JoinQueue(clientID, origin, rawName string) {
	name, err := security.ValidateDisplayName(rawName)
	if err != nil {
		m.hub.SendTo(clientID, errorMessage(err.Error()))
		return
	}

	m.mu.Lock()

	// Reconnection short-circuit.
	for _, lb := range m.battles {
		if !lb.IsActive() {
			continue
		}
		if p := lb.PlayerByOrigin(origin); p != nil {
			p.ClientID = clientID
			m.hub.Join(lb.ID, clientID)
			snap := m.snapshotLocked(lb, nil)
			m.mu.Unlock()
			log.Printf("↩ Reconnected origin to battle %s", snap.ID)
			m.hub.SendTo(clientID, &models.WSMessage{Type: models.MsgTypeBattleState, Payload: snap})
			return
		}
	}

	if m.queue.Contains(clientID) || m.playerBattleLocked(clientID) != nil || !m.hub.IsLive(clientID) {
		m.mu.Unlock()
		return
	}

	participant := &models.Participant{
		ID:          uuid.New().String(),
		Name:        name,
		ClientID:    clientID,
		OriginToken: origin,
	}
	entry := &queueEntry{
		participant: participant,
		enqueuedAt:  time.Now(),
		fallback:    NewActionTimer(),
	}
	m.queue.Add(entry)
	entry.fallback.Arm(config.MatchmakingWait, func() { m.assignBot(clientID) })
	m.metrics.SetQueueDepth(m.queue.Depth())

	// Drain the queue eagerly: pair every live couple right now rather
	// than waiting for the next enqueue.
	var pairs [][2]*queueEntry
	for {
		a, b := m.queue.PairLive(m.hub.IsLive)
		if a == nil {
			break
		}
		pairs = append(pairs, [2]*queueEntry{a, b})
	}
	m.metrics.SetQueueDepth(m.queue.Depth())
	m.mu.Unlock()

	m.hub.SendTo(clientID, &models.WSMessage{Type: models.MsgTypeSearching})
	for _, pair := range pairs {
		go m.startBattle(pair[0], pair[1])
	}
}

// assignBot fires when a queued participant has waited out the
// matchmaking window: it synthesizes a bot opponent and starts a battle.
func (m *BattleManager) assignBot(clientID string) {
	m.mu.Lock()
	entry := m.queue.Remove(clientID)
	m.metrics.SetQueueDepth(m.queue.Depth())
	m.mu.Unlock()

	if entry == nil || !m.hub.IsLive(clientID) {
		return
	}

	bot := &queueEntry{
		participant: NewBotOpponent(),
		enqueuedAt:  time.Now(),
		fallback:    NewActionTimer(),
	}
	m.startBattle(entry, bot)
}

// startBattle fetches a topic from the oracle and, if both sides are still
// live afterwards, creates the battle. Topic failure aborts creation and
// is isolated to this pairing.
func (m *BattleManager) startBattle(a, b *queueEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), config.OracleTimeout)
	topic, err := m.oracle.GenerateTopic(ctx)
	cancel()
	if err != nil {
		log.Printf("Topic generation failed, aborting battle creation: %v", err)
		m.metrics.IncrementOracleErrors()
		for _, e := range []*queueEntry{a, b} {
			if !e.participant.IsBot {
				m.hub.SendTo(e.participant.ClientID, errorMessage("Could not start a battle right now. Please try again."))
			}
		}
		return
	}

	m.mu.Lock()

	// The topic fetch was a suspension point: either side may have
	// disconnected, re-enqueued, or landed in another battle meanwhile.
	// Stale queue entries from a mid-fetch rejoin are removed first so
	// their bot-fallback timers die with them.
	for _, e := range []*queueEntry{a, b} {
		if !e.participant.IsBot {
			m.queue.Remove(e.participant.ClientID)
		}
	}
	if !m.availableLocked(a.participant) || !m.availableLocked(b.participant) {
		// Re-queue whoever can still play.
		for _, e := range []*queueEntry{a, b} {
			if !m.availableLocked(e.participant) || e.participant.IsBot {
				continue
			}
			clientID := e.participant.ClientID
			m.queue.Add(e)
			e.fallback.Arm(config.MatchmakingWait, func() { m.assignBot(clientID) })
		}
		m.metrics.SetQueueDepth(m.queue.Depth())
		m.mu.Unlock()
		return
	}
	m.metrics.SetQueueDepth(m.queue.Depth())

	now := time.Now()
	battle := &models.Battle{
		ID:      uuid.New().String(),
		Players: [2]*models.Participant{a.participant, b.participant},
		Topic:   topic,
		Sides: map[string]models.Side{
			a.participant.ID: models.SideA,
			b.participant.ID: models.SideB,
		},
		Round:      1,
		MaxRounds:  config.MaxRounds,
		RoundStart: now,
		Status:     models.BattleActive,
		Spectators: make(map[string]*models.Spectator),
		StartedAt:  now,
	}
	lb := &liveBattle{
		Battle:         battle,
		roundTimer:     NewActionTimer(),
		botTimer:       NewActionTimer(),
		purgeTimer:     NewActionTimer(),
		reactionTimers: make(map[string]*ActionTimer),
	}
	m.battles[battle.ID] = lb
	m.metrics.IncrementBattles()

	for _, p := range battle.Players {
		if !p.IsBot {
			m.hub.Join(battle.ID, p.ClientID)
		}
	}

	battleID := battle.ID
	lb.roundTimer.Arm(config.RoundDuration, func() { m.AdvanceRound(battleID) })
	if battle.BotPlayer() != nil {
		m.scheduleBotReplyLocked(lb, false)
	}

	snap := m.snapshotLocked(lb, nil)
	snapshot := cloneBattleLocked(lb)
	m.mu.Unlock()

	log.Printf("⚔ Battle %s started: %s vs %s", battle.ID, a.participant.Name, b.participant.Name)
	m.hub.BroadcastToBattle(battle.ID, &models.WSMessage{Type: models.MsgTypeBattleStarted, Payload: snap})
	go m.persistBattle(snapshot)
}

// ---------------------------------------------------------------------------
// In-battle events
// ---------------------------------------------------------------------------

// ReceiveLine appends a player's line to the transcript, tagged with the
// round active at append time. Lines from non-players, ended battles, or
// unknown battles are expected races and are silently ignored.
func (m *BattleManager) ReceiveLine(clientID, battleID, rawText string) {
	text, err := security.ValidateLineText(rawText)
	if err != nil {
		m.hub.SendTo(clientID, errorMessage(err.Error()))
		return
	}

	m.mu.Lock()
	lb, ok := m.battles[battleID]
	if !ok || !lb.IsActive() {
		m.mu.Unlock()
		return
	}
	speaker := lb.PlayerByClient(clientID)
	if speaker == nil {
		m.mu.Unlock()
		return
	}

	line := models.Line{
		ParticipantID: speaker.ID,
		Name:          speaker.Name,
		Text:          text,
		Round:         lb.Round,
		SentAt:        time.Now(),
	}
	lb.Lines = append(lb.Lines, line)

	// A fresh human line makes a bot opponent answer on the faster
	// reactive delay, unless it already spoke this round.
	if opp := lb.Opponent(speaker.ID); opp != nil && opp.IsBot && !lb.HasLineInRound(opp.ID, lb.Round) {
		m.scheduleBotReplyLocked(lb, true)
	}

	snapshot := cloneBattleLocked(lb)
	m.mu.Unlock()

	m.hub.BroadcastToBattle(battleID, &models.WSMessage{
		Type:    models.MsgTypeNewLine,
		Payload: map[string]any{"battleId": battleID, "line": line},
	})
	go m.persistBattle(snapshot)
}

// AdvanceRound is the round timer's target: bump the round or, after the
// final round, finalize the battle.
func (m *BattleManager) AdvanceRound(battleID string) {
	m.mu.Lock()
	lb, ok := m.battles[battleID]
	if !ok || !lb.IsActive() {
		m.mu.Unlock()
		return
	}

	if lb.Round < lb.MaxRounds {
		lb.Round++
		lb.RoundStart = time.Now()
		lb.roundTimer.Arm(config.RoundDuration, func() { m.AdvanceRound(battleID) })
		if bot := lb.BotPlayer(); bot != nil && !lb.HasLineInRound(bot.ID, lb.Round) {
			m.scheduleBotReplyLocked(lb, false)
		}

		payload := map[string]any{
			"battleId":    battleID,
			"round":       lb.Round,
			"maxRounds":   lb.MaxRounds,
			"roundStart":  lb.RoundStart,
			"roundEndsAt": lb.RoundStart.Add(config.RoundDuration),
		}
		snapshot := cloneBattleLocked(lb)
		m.mu.Unlock()

		m.hub.BroadcastToBattle(battleID, &models.WSMessage{Type: models.MsgTypeRoundChanged, Payload: payload})
		go m.persistBattle(snapshot)
		return
	}

	// Final round elapsed: flip to ended exactly once, then judge
	// asynchronously.
	m.markEndedLocked(lb)
	snapshot := cloneBattleLocked(lb)
	m.mu.Unlock()

	go m.judgeAndAnnounce(snapshot)
}

// markEndedLocked performs the single active→ended transition: cancels
// outstanding timers and arms the directory purge. Callers must hold the
// lock and have checked IsActive.
func (m *BattleManager) markEndedLocked(lb *liveBattle) {
	lb.Status = models.BattleEnded
	lb.EndedAt = time.Now()
	lb.roundTimer.Cancel()
	lb.botTimer.Cancel()
	battleID := lb.ID
	lb.purgeTimer.Arm(config.EndedGracePeriod, func() { m.purge(battleID) })
	m.metrics.DecrementBattles()
}

// judgeAndAnnounce resolves the outcome off-lock, then re-attaches it to
// the live battle (if it still exists) and broadcasts exactly one
// battle_ended.
func (m *BattleManager) judgeAndAnnounce(snapshot *models.Battle) {
	ctx, cancel := context.WithTimeout(context.Background(), config.OracleTimeout)
	result := m.resolver.Resolve(ctx, snapshot)
	cancel()
	if result == nil {
		// Fewer than two participants recorded; discard without a result.
		return
	}

	m.mu.Lock()
	if lb, ok := m.battles[snapshot.ID]; ok {
		lb.Result = result
	}
	m.mu.Unlock()

	m.hub.BroadcastToBattle(snapshot.ID, &models.WSMessage{
		Type:    models.MsgTypeBattleEnded,
		Payload: map[string]any{"battleId": snapshot.ID, "result": result},
	})

	snapshot.Result = result
	m.persistBattle(snapshot)
	m.resolver.PersistOutcome(snapshot)
}

// endEarlyLocked handles forfeit/disconnect: synthesizes a maximal-score
// result favoring the remaining player without consulting the judge. A
// no-op on already-ended battles. Returns the snapshot to broadcast and
// persist, or nil.
func (m *BattleManager) endEarlyLocked(lb *liveBattle, reason string, winner, loser *models.Participant) *models.Battle {
	if !lb.IsActive() {
		return nil
	}
	m.markEndedLocked(lb)
	lb.Result = ForfeitResult(winner, loser, reason)
	return cloneBattleLocked(lb)
}

// announceEnd broadcasts battle_ended for an early termination and kicks
// off the write-behind.
func (m *BattleManager) announceEnd(snapshot *models.Battle) {
	m.hub.BroadcastToBattle(snapshot.ID, &models.WSMessage{
		Type:    models.MsgTypeBattleEnded,
		Payload: map[string]any{"battleId": snapshot.ID, "result": snapshot.Result},
	})
	go func() {
		m.persistBattle(snapshot)
		m.resolver.PersistOutcome(snapshot)
	}()
}

// Leave handles an explicit leave: players forfeit, spectators are
// removed.
func (m *BattleManager) Leave(clientID, battleID string) {
	m.mu.Lock()
	lb, ok := m.battles[battleID]
	if !ok {
		m.mu.Unlock()
		return
	}

	if p := lb.PlayerByClient(clientID); p != nil {
		winner := lb.Opponent(p.ID)
		snapshot := m.endEarlyLocked(lb, "opponent left the battle", winner, p)
		m.mu.Unlock()
		if snapshot != nil {
			m.announceEnd(snapshot)
		}
		return
	}

	if _, ok := lb.Spectators[clientID]; ok {
		delete(lb.Spectators, clientID)
		m.hub.Leave(battleID, clientID)
	}
	m.mu.Unlock()
}

// HandleDisconnect reacts to an implicit connection loss: a queued waiter
// is dropped (fallback timer canceled), an active player forfeits, a
// spectator is removed.
func (m *BattleManager) HandleDisconnect(clientID string) {
	m.mu.Lock()

	if entry := m.queue.Remove(clientID); entry != nil {
		m.metrics.SetQueueDepth(m.queue.Depth())
		m.mu.Unlock()
		return
	}

	var snapshot *models.Battle
	for _, lb := range m.battles {
		if p := lb.PlayerByClient(clientID); p != nil && !p.IsBot {
			if lb.IsActive() {
				winner := lb.Opponent(p.ID)
				snapshot = m.endEarlyLocked(lb, "opponent disconnected", winner, p)
			}
			continue
		}
		if _, ok := lb.Spectators[clientID]; ok {
			delete(lb.Spectators, clientID)
			m.hub.Leave(lb.ID, clientID)
		}
	}
	m.mu.Unlock()

	if snapshot != nil {
		m.announceEnd(snapshot)
	}
}

// ---------------------------------------------------------------------------
// Spectators and reactions
// ---------------------------------------------------------------------------

// JoinSpectate admits a spectator or rejects with one of the three
// admission signals. On success the caller receives the full transcript
// and reaction feed plus a joinedAt marker.
func (m *BattleManager) JoinSpectate(clientID, battleID, rawName string) {
	name, err := security.ValidateDisplayName(rawName)
	if err != nil {
		m.hub.SendTo(clientID, errorMessage(err.Error()))
		return
	}

	m.mu.Lock()
	lb, ok := m.battles[battleID]
	if !ok {
		m.mu.Unlock()
		m.rejectSpectate(clientID, battleID, models.RejectNotFound)
		return
	}
	if lb.PlayerByClient(clientID) != nil {
		m.mu.Unlock()
		m.rejectSpectate(clientID, battleID, models.RejectAlreadyPresent)
		return
	}
	if _, present := lb.Spectators[clientID]; present {
		m.mu.Unlock()
		m.rejectSpectate(clientID, battleID, models.RejectAlreadyPresent)
		return
	}
	if len(lb.Spectators) >= config.MaxSpectatorsPerBattle {
		m.mu.Unlock()
		m.rejectSpectate(clientID, battleID, models.RejectFull)
		return
	}

	joinedAt := time.Now()
	lb.Spectators[clientID] = &models.Spectator{
		ClientID: clientID,
		Name:     name,
		JoinedAt: joinedAt,
	}
	m.hub.Join(battleID, clientID)
	snap := m.snapshotLocked(lb, &joinedAt)
	m.mu.Unlock()

	m.hub.SendTo(clientID, &models.WSMessage{Type: models.MsgTypeBattleState, Payload: snap})
}

func (m *BattleManager) rejectSpectate(clientID, battleID, reason string) {
	m.hub.SendTo(clientID, &models.WSMessage{
		Type:    models.MsgTypeSpectateRejected,
		Payload: map[string]string{"battleId": battleID, "reason": reason},
	})
}

// SendReaction appends an ephemeral spectator reaction. Rejections are
// silent: no broadcast for non-spectators, inactive battles, or emoji
// outside the allow-list.
func (m *BattleManager) SendReaction(clientID, battleID, emoji string) {
	if !security.IsAllowedEmoji(emoji) {
		return
	}

	m.mu.Lock()
	lb, ok := m.battles[battleID]
	if !ok || !lb.IsActive() {
		m.mu.Unlock()
		return
	}
	sp, ok := lb.Spectators[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}

	reaction := models.Reaction{
		ID:          uuid.New().String(),
		SpectatorID: clientID,
		Name:        sp.Name,
		Emoji:       emoji,
		SentAt:      time.Now(),
	}
	lb.Reactions = append(lb.Reactions, reaction)
	expiry := NewActionTimer()
	lb.reactionTimers[reaction.ID] = expiry
	if len(lb.Reactions) > config.MaxReactionFeed {
		// Trimmed reactions leave silently; their expiry timers go with
		// them.
		for _, old := range lb.Reactions[:len(lb.Reactions)-config.MaxReactionFeed] {
			if t, ok := lb.reactionTimers[old.ID]; ok {
				t.Cancel()
				delete(lb.reactionTimers, old.ID)
			}
		}
		lb.Reactions = lb.Reactions[len(lb.Reactions)-config.MaxReactionFeed:]
	}
	reactionID := reaction.ID
	expiry.Arm(config.ReactionTTL, func() { m.expireReaction(battleID, reactionID) })
	m.mu.Unlock()

	m.hub.BroadcastToBattle(battleID, &models.WSMessage{
		Type:    models.MsgTypeNewReaction,
		Payload: map[string]any{"battleId": battleID, "reaction": reaction},
	})
}

// expireReaction drops a reaction from the feed once its TTL elapses,
// regardless of battle state.
func (m *BattleManager) expireReaction(battleID, reactionID string) {
	m.mu.Lock()
	lb, ok := m.battles[battleID]
	if !ok {
		m.mu.Unlock()
		return
	}
	if t, ok := lb.reactionTimers[reactionID]; ok {
		t.Cancel()
		delete(lb.reactionTimers, reactionID)
	}
	found := false
	for i, reaction := range lb.Reactions {
		if reaction.ID == reactionID {
			lb.Reactions = append(lb.Reactions[:i], lb.Reactions[i+1:]...)
			found = true
			break
		}
	}
	m.mu.Unlock()

	if found {
		m.hub.BroadcastToBattle(battleID, &models.WSMessage{
			Type:    models.MsgTypeReactionExpired,
			Payload: map[string]string{"battleId": battleID, "reactionId": reactionID},
		})
	}
}

// ---------------------------------------------------------------------------
// Bot responder
// ---------------------------------------------------------------------------

// scheduleBotReplyLocked arms the battle's single bot-reply timer.
// Re-arming replaces a pending ambient reply with a faster reactive one.
func (m *BattleManager) scheduleBotReplyLocked(lb *liveBattle, reactive bool) {
	battleID := lb.ID
	lb.botTimer.Arm(botReplyDelay(reactive), func() { m.botSpeak(battleID) })
}

// botSpeak generates and appends the bot's line for the current round.
// Validity is re-checked after the oracle call: the battle may have ended
// or the bot may have already spoken by the time the reply arrives.
func (m *BattleManager) botSpeak(battleID string) {
	m.mu.Lock()
	lb, ok := m.battles[battleID]
	if !ok || !lb.IsActive() {
		m.mu.Unlock()
		return
	}
	bot := lb.BotPlayer()
	if bot == nil || lb.HasLineInRound(bot.ID, lb.Round) {
		m.mu.Unlock()
		return
	}
	human := lb.Opponent(bot.ID)

	round := lb.Round
	req := ReplyRequest{
		Topic:        lb.Topic,
		Transcript:   slices.Clone(lb.Lines),
		SpeakerName:  bot.Name,
		OpponentName: human.Name,
		Side:         lb.Sides[bot.ID],
		Round:        round,
	}
	if last := lb.LastLineBy(human.ID); last != nil && last.Round == round {
		req.LastOpponentLine = last.Text
	}
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), config.OracleTimeout)
	reply, err := m.oracle.GenerateReply(ctx, req)
	cancel()
	if err != nil {
		log.Printf("Bot reply generation failed for battle %s, using fallback: %v", battleID, err)
		m.metrics.IncrementOracleErrors()
		reply = botFallbackLine(round)
	}

	m.mu.Lock()
	lb, ok = m.battles[battleID]
	if !ok || !lb.IsActive() || lb.HasLineInRound(bot.ID, lb.Round) {
		m.mu.Unlock()
		return
	}
	line := models.Line{
		ParticipantID: bot.ID,
		Name:          bot.Name,
		Text:          reply,
		Round:         lb.Round,
		SentAt:        time.Now(),
	}
	lb.Lines = append(lb.Lines, line)
	snapshot := cloneBattleLocked(lb)
	m.mu.Unlock()

	m.hub.BroadcastToBattle(battleID, &models.WSMessage{
		Type:    models.MsgTypeNewLine,
		Payload: map[string]any{"battleId": battleID, "line": line},
	})
	go m.persistBattle(snapshot)
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// ActiveBattles lists currently active battles for the query surface.
func (m *BattleManager) ActiveBattles() []BattleSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	summaries := make([]BattleSummary, 0, len(m.battles))
	for _, lb := range m.battles {
		if !lb.IsActive() {
			continue
		}
		names := make([]string, 0, 2)
		for _, p := range lb.Players {
			if p != nil {
				names = append(names, p.Name)
			}
		}
		summaries = append(summaries, BattleSummary{
			ID:             lb.ID,
			TopicLabel:     lb.Topic.Label,
			Players:        names,
			SpectatorCount: len(lb.Spectators),
			SpectatorCap:   config.MaxSpectatorsPerBattle,
			Round:          lb.Round,
			MaxRounds:      lb.MaxRounds,
		})
	}
	return summaries
}

// GetBattle returns a copy of an in-memory battle (active, or ended but
// still inside the grace period).
func (m *BattleManager) GetBattle(id string) (*models.Battle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lb, ok := m.battles[id]
	if !ok {
		return nil, false
	}
	return cloneBattleLocked(lb), true
}

// QueueDepth reports the number of waiting participants.
func (m *BattleManager) QueueDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Depth()
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

// purge removes an ended battle from the directory after the grace period.
func (m *BattleManager) purge(battleID string) {
	m.mu.Lock()
	if lb, ok := m.battles[battleID]; ok {
		for _, t := range lb.reactionTimers {
			t.Cancel()
		}
		delete(m.battles, battleID)
	}
	m.mu.Unlock()
	m.hub.DropBattle(battleID)
}

// availableLocked reports whether a participant can still enter a new
// battle: connection alive and not already playing in one. Bots always
// qualify.
func (m *BattleManager) availableLocked(p *models.Participant) bool {
	if p.IsBot {
		return true
	}
	return m.hub.IsLive(p.ClientID) && m.playerBattleLocked(p.ClientID) == nil
}

// playerBattleLocked finds the battle a connection is playing in, if any.
func (m *BattleManager) playerBattleLocked(clientID string) *liveBattle {
	for _, lb := range m.battles {
		if lb.PlayerByClient(clientID) != nil {
			return lb
		}
	}
	return nil
}

// persistBattle is the fire-and-forget write-behind of a battle snapshot.
func (m *BattleManager) persistBattle(snapshot *models.Battle) {
	if !m.store.Enabled() {
		return
	}
	if err := m.store.SaveBattle(snapshot); err != nil {
		log.Printf("Failed to persist battle %s: %v", snapshot.ID, err)
		m.metrics.IncrementPersistenceErrors()
	}
}

// snapshotLocked builds the wire-facing state sync for a battle.
func (m *BattleManager) snapshotLocked(lb *liveBattle, joinedAt *time.Time) *battleSnapshot {
	players := make([]playerView, 0, 2)
	for _, p := range lb.Players {
		if p == nil {
			continue
		}
		players = append(players, playerView{
			ID:    p.ID,
			Name:  p.Name,
			IsBot: p.IsBot,
			Side:  lb.Sides[p.ID],
		})
	}

	return &battleSnapshot{
		ID:             lb.ID,
		Topic:          lb.Topic,
		Players:        players,
		Round:          lb.Round,
		MaxRounds:      lb.MaxRounds,
		RoundStart:     lb.RoundStart,
		RoundEndsAt:    lb.RoundStart.Add(config.RoundDuration),
		Status:         lb.Status,
		Lines:          slices.Clone(lb.Lines),
		Reactions:      slices.Clone(lb.Reactions),
		SpectatorCount: len(lb.Spectators),
		SpectatorCap:   config.MaxSpectatorsPerBattle,
		Result:         lb.Result,
		JoinedAt:       joinedAt,
	}
}

// cloneBattleLocked deep-copies a battle so resolver/persistence work can
// proceed off-lock without sharing mutable state.
func cloneBattleLocked(lb *liveBattle) *models.Battle {
	c := *lb.Battle
	for i, p := range lb.Players {
		if p != nil {
			cp := *p
			c.Players[i] = &cp
		}
	}
	c.Sides = maps.Clone(lb.Sides)
	c.Lines = slices.Clone(lb.Lines)
	c.Reactions = slices.Clone(lb.Reactions)
	c.Spectators = maps.Clone(lb.Spectators)
	if lb.Result != nil {
		r := *lb.Result
		r.Scores = maps.Clone(r.Scores)
		c.Result = &r
	}
	return &c
}

func errorMessage(text string) *models.WSMessage {
	return &models.WSMessage{
		Type:    models.MsgTypeError,
		Payload: map[string]string{"message": text},
	}
}
