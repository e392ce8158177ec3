package game

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"compact-conflict/pkg/maps"
)

// Helper to create a test game state on a hand-built map. Every region starts
// neutral and empty.
func createTestGameState(neighbors [][]int, players int) *GameState {
	m := maps.New(neighbors)
	ps := make([]*Player, players)
	for i := range ps {
		ps[i] = NewPlayer(i, fmt.Sprintf("P%d", i))
	}
	return NewState(m, ps, Setup{TurnLimit: UnlimitedTurns, Seed: 1}, NewArena(1))
}

// chain is 0-1-2-...-(n-1).
func chain(n int) [][]int {
	adj := make([][]int, n)
	for i := 0; i+1 < n; i++ {
		adj[i] = []int{i + 1}
	}
	return adj
}

func mustApply(t *testing.T, g *GameState, m Move) (*GameState, *Battle) {
	t.Helper()
	next, battle, err := g.Apply(m)
	if err != nil {
		t.Fatalf("Apply(%v): %v", m, err)
	}
	return next, battle
}

func TestArmyMoveConservesSoldiers(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		g := createTestGameState(chain(3), 2)
		g.arena = NewArena(seed)
		g = g.Place(0, 0, 5).Place(1, 1, 4).Place(2, 1, 1)

		before := g.SoldierCount(0) + g.SoldierCount(1)
		next, battle := mustApply(t, g, ArmyMove{Source: 0, Destination: 1, Count: 5})
		after := next.SoldierCount(0) + next.SoldierCount(1)

		if after > before {
			t.Fatalf("seed %d: soldiers grew from %d to %d", seed, before, after)
		}
		if lost := battle.AttackerLosses() + battle.DefenderLosses(); before-after != lost {
			t.Errorf("seed %d: %d soldiers vanished but battle recorded %d losses", seed, before-after, lost)
		}
		if g.SoldierCount(0) != 5 || g.SoldierCount(1) != 4 {
			t.Errorf("seed %d: original state was modified", seed)
		}
	}
}

func TestSimulatedCombatIsDeterministic(t *testing.T) {
	g := createTestGameState(chain(2), 2)
	g = g.Place(0, 0, 6).Place(1, 1, 5).Simulation()

	first := g.ResolveBattle(0, 1, 6)
	second := g.ResolveBattle(0, 1, 6)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("simulated battles differ:\n%+v\n%+v", first, second)
	}

	a, _ := mustApply(t, g, ArmyMove{Source: 0, Destination: 1, Count: 6})
	b, _ := mustApply(t, g, ArmyMove{Source: 0, Destination: 1, Count: 6})
	if a.Owner(1) != b.Owner(1) || a.SoldierCount(1) != b.SoldierCount(1) || a.SoldierCount(0) != b.SoldierCount(0) {
		t.Error("simulated moves produced different boards")
	}
}

func TestSimulatedRollsClusterInTheMiddle(t *testing.T) {
	g := createTestGameState(chain(2), 2).Simulation()
	for repeats := 1; repeats <= 30; repeats++ {
		prev := 0.0
		for i := 0; i < repeats; i++ {
			r := g.roll(i, repeats)
			if r <= rollFloor || r >= rollFloor+rollSpan {
				t.Fatalf("repeats %d round %d: roll %v outside the band", repeats, i, r)
			}
			if r <= prev {
				t.Fatalf("repeats %d round %d: roll %v does not increase", repeats, i, r)
			}
			prev = r
			if mirror := g.roll(repeats-1-i, repeats); math.Abs(r+mirror-1) > 1e-9 {
				t.Errorf("repeats %d round %d: rolls %v and %v are not centred", repeats, i, r, mirror)
			}
		}
	}

	// five rounds run from 30% to 70% of the band
	first, last := g.roll(0, 5), g.roll(4, 5)
	if want := rollFloor + rollSpan*0.3; math.Abs(first-want) > 1e-9 {
		t.Errorf("first of five rolls %v, want %v", first, want)
	}
	if want := rollFloor + rollSpan*0.7; math.Abs(last-want) > 1e-9 {
		t.Errorf("last of five rolls %v, want %v", last, want)
	}
}

func TestLiveCombatVaries(t *testing.T) {
	g := createTestGameState(chain(2), 2)
	g = g.Place(0, 0, 5).Place(1, 1, 5)

	outcomes := make(map[int]int)
	for i := 0; i < 200; i++ {
		outcomes[g.ResolveBattle(0, 1, 5).Survivors]++
	}
	if len(outcomes) < 2 {
		t.Errorf("expected varying outcomes for an even fight, got %v", outcomes)
	}
}

func TestOverwhelmingAttackConquers(t *testing.T) {
	g := createTestGameState(chain(3), 2)
	g = g.Place(0, 0, 10).Place(1, 1, 2).Place(2, 1, 3)
	g = g.WithTemple(Temple{Region: 1, Upgrade: UpgradeWater, Level: 1})
	moves := g.MovesRemaining

	next, battle := mustApply(t, g, ArmyMove{Source: 0, Destination: 1, Count: 10})

	if battle == nil || !battle.Conquered {
		t.Fatalf("expected conquest, got %+v", battle)
	}
	if next.Owner(1) != 0 {
		t.Errorf("expected region 1 owned by 0, got %d", next.Owner(1))
	}
	if n := next.SoldierCount(1); n < 8 {
		t.Errorf("expected at least 8 survivors, got %d", n)
	}
	if !next.Temple(1).Bare() {
		t.Errorf("expected temple upgrade cleared, got %+v", next.Temple(1))
	}
	if next.MovesRemaining != moves-1 {
		t.Errorf("expected %d moves left, got %d", moves-1, next.MovesRemaining)
	}
	if !next.Conquered(1) {
		t.Error("expected region 1 marked conquered")
	}
	if got := next.Faith(1); got != 2*MartyrBonus {
		t.Errorf("expected martyr bonus %d, got %d", 2*MartyrBonus, got)
	}
}

func TestEarthKillsLoneAttacker(t *testing.T) {
	g := createTestGameState(chain(3), 2)
	g = g.Place(0, 0, 3).Place(1, 1, 1).Place(2, 1, 1)
	g = g.WithTemple(Temple{Region: 2, Upgrade: UpgradeEarth, Level: 1})

	next, battle := mustApply(t, g, ArmyMove{Source: 0, Destination: 1, Count: 1})

	if len(battle.Frames) == 0 || battle.Frames[0].Hint != HintEarth || battle.Frames[0].AttackerLosses != 1 {
		t.Fatalf("expected a single preemptive earth frame first, got %+v", battle.Frames)
	}
	if battle.DefenderLosses() != 0 {
		t.Errorf("expected no defender losses, got %d", battle.DefenderLosses())
	}
	if next.Owner(1) != 1 || next.SoldierCount(1) != 1 {
		t.Errorf("expected region 1 untouched, owner %d soldiers %d", next.Owner(1), next.SoldierCount(1))
	}
	if next.SoldierCount(0) != 2 {
		t.Errorf("expected 2 soldiers left at source, got %d", next.SoldierCount(0))
	}
}

func TestFireChargesAbsorbAttackerLosses(t *testing.T) {
	g := createTestGameState(chain(3), 2)
	g = g.Place(0, 0, 4).Place(1, 1, 4).Place(2, 0, 1).Simulation()
	plain := g.ResolveBattle(0, 1, 4)

	fired := g.WithTemple(Temple{Region: 2, Upgrade: UpgradeFire, Level: 1}).ResolveBattle(0, 1, 4)
	if fired.AttackerLosses() >= plain.AttackerLosses() && plain.AttackerLosses() > 0 {
		t.Errorf("fire should reduce attacker losses: plain %d, fire %d", plain.AttackerLosses(), fired.AttackerLosses())
	}
	charges := 0
	for _, f := range fired.Frames {
		if f.Hint == HintFire {
			charges++
		}
	}
	if charges > 2 {
		t.Errorf("used %d fire charges, level allows 2", charges)
	}
}

func TestRepelledAttackersReturnHome(t *testing.T) {
	g := createTestGameState(chain(2), 2)
	g = g.Place(0, 0, 5).Place(1, 1, 9).Simulation()

	next, battle := mustApply(t, g, ArmyMove{Source: 0, Destination: 1, Count: 3})
	if battle.Conquered {
		t.Fatal("3 soldiers should not take a region held by 9")
	}
	if next.Owner(1) != 1 {
		t.Errorf("expected owner unchanged, got %d", next.Owner(1))
	}
	if got, want := next.SoldierCount(0), 2+battle.Survivors; got != want {
		t.Errorf("expected %d survivors back at source, got %d", want, got)
	}
	if got, want := next.SoldierCount(1), 9-battle.DefenderLosses(); got != want {
		t.Errorf("expected %d defenders, got %d", want, got)
	}
}

func TestFriendlyMoveTransfersSoldiers(t *testing.T) {
	g := createTestGameState(chain(3), 2)
	g = g.Place(0, 0, 4).Place(1, 0, 1).Place(2, 1, 1)
	ids := g.Soldiers(0)

	next, battle := mustApply(t, g, ArmyMove{Source: 0, Destination: 1, Count: 3})
	if battle != nil {
		t.Errorf("expected no battle, got %+v", battle)
	}
	if next.SoldierCount(0) != 1 || next.SoldierCount(1) != 4 {
		t.Errorf("expected 1/4 soldiers, got %d/%d", next.SoldierCount(0), next.SoldierCount(1))
	}
	moved := next.Soldiers(1)[1:]
	if !reflect.DeepEqual(moved, ids[1:]) {
		t.Errorf("expected soldier identities to travel, got %v want %v", moved, ids[1:])
	}
	if next.MovesRemaining != g.MovesRemaining-1 {
		t.Errorf("expected one move spent")
	}
	if next.Conquered(1) {
		t.Error("friendly move should not mark conquest")
	}
}

func TestArmyMoveValidation(t *testing.T) {
	base := createTestGameState(chain(4), 2)
	base = base.Place(0, 0, 3).Place(1, 0, 2).Place(3, 1, 2)

	noMoves := base.clone()
	noMoves.MovesRemaining = 0

	locked := base.clone()
	locked.setConquered(1, true)

	tests := []struct {
		name string
		g    *GameState
		move ArmyMove
		want error
	}{
		{"not owner", base, ArmyMove{Source: 3, Destination: 2, Count: 1}, ErrNotOwner},
		{"not adjacent", base, ArmyMove{Source: 0, Destination: 2, Count: 1}, ErrNotAdjacent},
		{"zero count", base, ArmyMove{Source: 0, Destination: 1, Count: 0}, ErrInvalidCount},
		{"too many", base, ArmyMove{Source: 0, Destination: 1, Count: 4}, ErrInvalidCount},
		{"no moves", noMoves, ArmyMove{Source: 0, Destination: 1, Count: 1}, ErrNoMovesLeft},
		{"conquered this turn", locked, ArmyMove{Source: 1, Destination: 2, Count: 1}, ErrRegionLocked},
		{"bad index", base, ArmyMove{Source: 0, Destination: 9, Count: 1}, ErrInvalidRegion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := tt.g.Apply(tt.move); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewArmyMoveRejectsBadIndex(t *testing.T) {
	m := maps.New(chain(3))
	if _, err := NewArmyMove(m, 0, 3, 1); !errors.Is(err, ErrInvalidRegion) {
		t.Errorf("expected ErrInvalidRegion, got %v", err)
	}
	if _, err := NewArmyMove(m, -1, 1, 1); !errors.Is(err, ErrInvalidRegion) {
		t.Errorf("expected ErrInvalidRegion, got %v", err)
	}
	if mv, err := NewArmyMove(m, 0, 1, 2); err != nil || mv.Count != 2 {
		t.Errorf("unexpected result %+v, %v", mv, err)
	}
}

type bogusMove struct{}

func (bogusMove) Kind() string { return "bogus" }

func TestUnknownMoveIsRejected(t *testing.T) {
	g := createTestGameState(chain(2), 2).Place(0, 0, 1).Place(1, 1, 1)
	if _, _, err := g.Apply(bogusMove{}); !errors.Is(err, ErrUnknownMove) {
		t.Errorf("expected ErrUnknownMove, got %v", err)
	}
}

func TestPrecomputedBattleIsReused(t *testing.T) {
	g := createTestGameState(chain(3), 2)
	g = g.Place(0, 0, 5).Place(1, 1, 5).Place(2, 1, 1)
	battle := g.ResolveBattle(0, 1, 5)

	for i := 0; i < 10; i++ {
		next, got := mustApply(t, g, ArmyMove{Source: 0, Destination: 1, Count: 5, Battle: battle})
		if got != battle {
			t.Fatal("expected the supplied battle record to be returned")
		}
		if next.Owner(1) == 0 != battle.Conquered {
			t.Fatal("board does not follow the supplied battle")
		}
	}

	stale := *battle
	stale.Count = 4
	if _, _, err := g.Apply(ArmyMove{Source: 0, Destination: 1, Count: 5, Battle: &stale}); !errors.Is(err, ErrBattleMismatch) {
		t.Errorf("expected ErrBattleMismatch, got %v", err)
	}
}

func TestEndMoveSkipsPlayersWithoutRegions(t *testing.T) {
	g := createTestGameState(chain(4), 4)
	g = g.Place(0, 0, 1).Place(2, 2, 1).Place(3, 3, 1)

	next, _ := mustApply(t, g, EndMove{})
	if next.Current != 2 {
		t.Errorf("expected player 2 to be active, got %d", next.Current)
	}
	if next.Turn != g.Turn {
		t.Errorf("turn should not advance mid-round, got %d", next.Turn)
	}

	next, _ = mustApply(t, next, EndMove{})
	next, _ = mustApply(t, next, EndMove{})
	if next.Current != 0 || next.Turn != g.Turn+1 {
		t.Errorf("expected player 0 on turn %d, got player %d on turn %d", g.Turn+1, next.Current, next.Turn)
	}
}

func TestEndMoveWrapsPastDeadFirstPlayer(t *testing.T) {
	g := createTestGameState(chain(3), 3)
	g = g.Place(1, 1, 1).Place(2, 2, 1)
	g.Current = 2

	next, _ := mustApply(t, g, EndMove{})
	if next.Current != 1 {
		t.Errorf("expected player 1, got %d", next.Current)
	}
	if next.Turn != g.Turn+1 {
		t.Errorf("expected turn %d, got %d", g.Turn+1, next.Turn)
	}
}

func TestEndMovePaysAndProduces(t *testing.T) {
	g := createTestGameState(chain(4), 2)
	g = g.Place(0, 0, 4).Place(1, 0, 1).Place(2, 0, 0).Place(3, 1, 2)
	g = g.WithTemple(Temple{Region: 0}).WithTemple(Temple{Region: 3, Upgrade: UpgradeAir, Level: 0})
	g.SoldiersBought = 3
	g.setConquered(1, true)

	next, _ := mustApply(t, g, EndMove{})

	if got := next.Faith(0); got != 7 {
		t.Errorf("expected income 7 (3 regions + 4 temple soldiers), got %d", got)
	}
	if got := next.SoldierCount(0); got != 5 {
		t.Errorf("expected temple to produce a soldier, got %d", got)
	}
	if next.SoldierCount(3) != 2 {
		t.Errorf("only the ending player's temples produce")
	}
	if next.MovesRemaining != BaseMoves+1 {
		t.Errorf("expected %d moves with Air, got %d", BaseMoves+1, next.MovesRemaining)
	}
	if next.SoldiersBought != 0 || next.Conquered(1) {
		t.Error("expected per-turn markers reset")
	}
}

func TestIncome(t *testing.T) {
	g := createTestGameState(chain(4), 2)
	g = g.Place(0, 0, 4).Place(1, 0, 1).Place(2, 0, 1).Place(3, 1, 1)

	if got := g.Income(0); got != 0 {
		t.Errorf("expected no income without temples, got %d", got)
	}

	g = g.WithTemple(Temple{Region: 0})
	if got := g.Income(0); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}

	g = g.WithTemple(Temple{Region: 0, Upgrade: UpgradeWater, Level: 0})
	if got := g.Income(0); got != 9 {
		t.Errorf("expected ceil(7*1.2)=9, got %d", got)
	}

	g = g.WithTemple(Temple{Region: 0, Upgrade: UpgradeWater, Level: 1})
	if got := g.Income(0); got != 10 {
		t.Errorf("expected ceil(7*1.4)=10, got %d", got)
	}
}

func TestIncomeCheatAppliesOnlyToEvilAI(t *testing.T) {
	g := createTestGameState(chain(2), 2)
	g.Players[0] = NewAIPlayer(0, "ai", Personalities[0])
	g = g.Place(0, 0, 4).Place(1, 1, 4)
	g = g.WithTemple(Temple{Region: 0}).WithTemple(Temple{Region: 1})

	g.Setup.Difficulty = DifficultyMean
	if g.Income(0) != 5 {
		t.Errorf("expected no cheat below evil, got %d", g.Income(0))
	}
	g.Setup.Difficulty = DifficultyEvil
	if got := g.Income(0); got != 7 {
		t.Errorf("expected ceil(5*1.4)=7 for evil AI, got %d", got)
	}
	if got := g.Income(1); got != 5 {
		t.Errorf("humans never get the cheat, got %d", got)
	}
}

func TestEliminationEndsGame(t *testing.T) {
	g := createTestGameState(chain(3), 2)
	g = g.Place(0, 0, 5).Place(1, 1, 1).Place(2, 1, 0).Simulation()

	next, battle := mustApply(t, g, ArmyMove{Source: 0, Destination: 1, Count: 5})
	if !battle.Conquered {
		t.Fatalf("expected conquest, got %+v", battle)
	}
	if next.Owner(2) != Neutral {
		t.Errorf("eliminated player's regions should turn neutral, got %d", next.Owner(2))
	}
	if next.Result == nil || next.Result.Draw || next.Result.Winner != 0 {
		t.Fatalf("expected player 0 to win, got %+v", next.Result)
	}
	if _, _, err := next.Apply(EndMove{}); !errors.Is(err, ErrGameOver) {
		t.Errorf("expected ErrGameOver, got %v", err)
	}
}

func TestEliminatedCurrentPlayerLosesMoves(t *testing.T) {
	g := createTestGameState(chain(3), 3)
	g = g.Place(0, 0, 1).Place(1, 1, 9).Place(2, 2, 1).Simulation()

	next, battle := mustApply(t, g, ArmyMove{Source: 0, Destination: 1, Count: 1})
	if battle.Survivors != 0 {
		t.Fatalf("expected the lone attacker to fall, got %+v", battle)
	}
	if next.Owner(0) != Neutral {
		t.Errorf("expected player 0 eliminated, region 0 owned by %d", next.Owner(0))
	}
	if next.MovesRemaining != 0 {
		t.Errorf("expected moves zeroed, got %d", next.MovesRemaining)
	}
	if next.Result != nil {
		t.Errorf("two players remain, game should go on: %+v", next.Result)
	}
}

func TestTurnLimitDecidesWinnerOrDraw(t *testing.T) {
	g := createTestGameState(chain(4), 2)
	g.Setup.TurnLimit = 1
	g = g.Place(0, 0, 1).Place(1, 0, 1).Place(3, 1, 1)
	g.Current = 1

	next, _ := mustApply(t, g, EndMove{})
	if next.Result == nil || next.Result.Winner != 0 {
		t.Fatalf("expected player 0 to win on regions, got %+v", next.Result)
	}

	g = g.Place(2, 1, 1)
	next, _ = mustApply(t, g, EndMove{})
	if next.Result == nil || !next.Result.Draw || next.Result.Winner != Neutral {
		t.Fatalf("expected a draw, got %+v", next.Result)
	}
}

func TestBuildMoves(t *testing.T) {
	g := createTestGameState(chain(2), 2)
	g = g.Place(0, 0, 1).Place(1, 1, 1).WithTemple(Temple{Region: 0}).WithFaith(0, 90)

	g, _ = mustApply(t, g, BuildMove{Upgrade: UpgradeSoldier, Temple: 0})
	g, _ = mustApply(t, g, BuildMove{Upgrade: UpgradeSoldier, Temple: 0})
	if g.SoldierCount(0) != 3 || g.Faith(0) != 90-8-12 || g.SoldiersBought != 2 {
		t.Fatalf("soldier purchases: count %d faith %d bought %d", g.SoldierCount(0), g.Faith(0), g.SoldiersBought)
	}

	moves := g.MovesRemaining
	g, _ = mustApply(t, g, BuildMove{Upgrade: UpgradeAir, Temple: 0})
	if tp := g.Temple(0); tp.Upgrade != UpgradeAir || tp.Level != 0 {
		t.Fatalf("expected Air level 0, got %+v", tp)
	}
	if g.MovesRemaining != moves+1 {
		t.Errorf("expected an immediate extra move, got %d", g.MovesRemaining)
	}

	g, _ = mustApply(t, g, BuildMove{Upgrade: UpgradeAir, Temple: 0})
	if tp := g.Temple(0); tp.Level != 1 {
		t.Fatalf("expected Air level 1, got %+v", tp)
	}
	if _, _, err := g.Apply(BuildMove{Upgrade: UpgradeAir, Temple: 0}); !errors.Is(err, ErrMaxLevel) {
		t.Errorf("expected ErrMaxLevel, got %v", err)
	}

	g, _ = mustApply(t, g, BuildMove{Upgrade: UpgradeRebuild, Temple: 0})
	if !g.Temple(0).Bare() {
		t.Error("rebuild should clear the temple")
	}

	if _, _, err := g.Apply(BuildMove{Upgrade: UpgradeEarth, Temple: 0}); !errors.Is(err, ErrInsufficientFaith) {
		t.Errorf("expected ErrInsufficientFaith with %d faith, got %v", g.Faith(0), err)
	}
	if _, _, err := g.Apply(BuildMove{Upgrade: UpgradeWater, Temple: 1}); !errors.Is(err, ErrNoTemple) {
		t.Errorf("expected ErrNoTemple, got %v", err)
	}
}

func TestSoldierPriceEscalatesAndResets(t *testing.T) {
	prev := 0
	for n := 0; n < maxSoldierPurchases+5; n++ {
		p := SoldierPrice(n)
		if p < prev {
			t.Fatalf("price dropped at purchase %d: %d < %d", n, p, prev)
		}
		prev = p
	}

	g := createTestGameState(chain(2), 2)
	g = g.Place(0, 0, 1).Place(1, 1, 1).WithTemple(Temple{Region: 0}).WithFaith(0, 50)
	g, _ = mustApply(t, g, BuildMove{Upgrade: UpgradeSoldier, Temple: 0})
	if g.SoldierPrice() != 12 {
		t.Errorf("expected second soldier at 12, got %d", g.SoldierPrice())
	}
	g, _ = mustApply(t, g, EndMove{})
	if g.SoldierPrice() != 8 {
		t.Errorf("expected price reset to 8, got %d", g.SoldierPrice())
	}
}

func TestSoldierIDsAreUnique(t *testing.T) {
	g := createTestGameState(chain(3), 2)
	g = g.Place(0, 0, 3).Place(1, 1, 3).Place(2, 1, 3).WithTemple(Temple{Region: 0})
	g, _ = mustApply(t, g, EndMove{})

	seen := make(map[uint64]bool)
	for r := 0; r < g.Map.Len(); r++ {
		for _, s := range g.Soldiers(r) {
			if seen[s.ID] {
				t.Fatalf("soldier id %d issued twice", s.ID)
			}
			seen[s.ID] = true
		}
	}
	if len(seen) != 10 {
		t.Errorf("expected 10 soldiers, got %d", len(seen))
	}
}

func TestApplyLeavesParentUntouched(t *testing.T) {
	g := createTestGameState(chain(3), 2)
	g = g.Place(0, 0, 6).Place(1, 1, 1).Place(2, 1, 2).WithTemple(Temple{Region: 1, Upgrade: UpgradeFire})
	before := g.View()

	child, _ := mustApply(t, g.Simulation(), ArmyMove{Source: 0, Destination: 1, Count: 6})
	if child.Owner(1) != 0 {
		t.Fatal("expected child to conquer")
	}
	if !reflect.DeepEqual(before, g.View()) {
		t.Error("parent state changed after Apply")
	}
}
