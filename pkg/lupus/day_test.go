package lupus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDayMajorityBurn(t *testing.T) {
	players := []Player{
		seat("w", "anna", RoleLupo),
		seat("v1", "bruno", RoleVillico),
		seat("v2", "carla", RoleVillico),
		seat("v3", "dario", RoleVillico),
	}
	votes := []Vote{
		{PlayerID: "v1", TargetID: "w"},
		{PlayerID: "v2", TargetID: "w"},
		{PlayerID: "v3", TargetID: "v1"},
	}

	res := ResolveDay(players, votes)

	assert.Equal(t, []string{"anna"}, res.Deaths)
	assert.Equal(t, []string{"w"}, res.DeathIDs)
	require.NotNil(t, res.Burned)
	assert.Equal(t, "anna", res.Burned.Nickname)
	assert.Equal(t, RoleLupo, res.Burned.Role)
	require.Len(t, res.Events, 1)
	assert.Equal(t, EventBurned, res.Events[0].Type)
	assert.Equal(t, "anna mandato al rogo (era Lupo)", res.Events[0].Detail)
}

func TestResolveDayTieBurnsEveryone(t *testing.T) {
	players := []Player{
		seat("a", "anna", RoleLupo),
		seat("b", "bruno", RoleVillico),
		seat("c", "carla", RoleVeggente),
		seat("d", "dario", RoleVillico),
	}
	votes := []Vote{
		{PlayerID: "a", TargetID: "b"},
		{PlayerID: "b", TargetID: "a"},
		{PlayerID: "c", TargetID: "b"},
		{PlayerID: "d", TargetID: "a"},
	}

	res := ResolveDay(players, votes)

	assert.Equal(t, []string{"bruno", "anna"}, res.Deaths, "every top target dies on a tie, first-vote order")
	require.NotNil(t, res.Burned)
	assert.Equal(t, "bruno", res.Burned.Nickname, "the Medium learns about the first of the tied")
	assert.Len(t, res.Events, 2)
}

func TestResolveDayNoVotes(t *testing.T) {
	players := []Player{
		seat("a", "anna", RoleLupo),
		seat("b", "bruno", RoleVillico),
	}

	res := ResolveDay(players, nil)

	assert.Empty(t, res.Deaths)
	assert.Nil(t, res.Burned)
	assert.Empty(t, res.Events)
}

func TestResolveDayBurnReportsCurrentRole(t *testing.T) {
	// A Mitomane turned Lupo burns as a Lupo, not as their original role.
	players := []Player{
		seat("m", "anna", RoleMitomane),
		seat("b", "bruno", RoleVillico),
		seat("c", "carla", RoleVillico),
	}
	players[0].Role = RoleLupo
	votes := []Vote{
		{PlayerID: "b", TargetID: "m"},
		{PlayerID: "c", TargetID: "m"},
	}

	res := ResolveDay(players, votes)

	require.NotNil(t, res.Burned)
	assert.Equal(t, RoleLupo, res.Burned.Role)
	assert.Equal(t, "anna mandato al rogo (era Lupo)", res.Events[0].Detail)
}

func TestResolveDayDeadTargetIsSkipped(t *testing.T) {
	players := []Player{
		seat("a", "anna", RoleLupo),
		seat("b", "bruno", RoleVillico),
		seat("c", "carla", RoleVillico),
	}
	players[1].Alive = false
	votes := []Vote{
		{PlayerID: "a", TargetID: "b"},
		{PlayerID: "c", TargetID: "b"},
	}

	res := ResolveDay(players, votes)

	assert.Empty(t, res.Deaths, "votes against an already dead player burn nobody")
}
