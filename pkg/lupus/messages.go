package lupus

import "fmt"

// InspectResult answers a Veggente's inspection. The Criceto reads as "not a
// wolf" even though wolves cannot kill it.
func InspectResult(target Player) string {
	if IsWolf(target.Role) && target.Role != RoleCriceto {
		return fmt.Sprintf("%s è un LUPO 🐺", target.Nickname)
	}
	return fmt.Sprintf("%s NON è un Lupo ✅", target.Nickname)
}

// InspectRoleResult answers an Oracolo's inspection with the target's exact
// current role.
func InspectRoleResult(target Player) string {
	return fmt.Sprintf("%s è: %s %s", target.Nickname, target.Role, Emoji(target.Role))
}

// NightMessage builds the private night information for a player, or the
// empty string when the role gets none. The Medium learns about the previous
// day's burning from night 2 on; the Massoni recognize each other on night 1.
func NightMessage(p Player, turn int, burnedNick string, burnedRole Role, players []Player) string {
	if p.Role == RoleMedium && turn >= 2 {
		if burnedNick != "" && burnedRole != "" {
			if IsWolf(burnedRole) {
				return fmt.Sprintf("👻 Il morto al rogo (%s) ERA un Lupo 🐺", burnedNick)
			}
			return fmt.Sprintf("👻 Il morto al rogo (%s) NON era un Lupo ✅", burnedNick)
		}
		return "👻 Nessuno è stato mandato al rogo ieri."
	}

	if p.Role == RoleMassone && turn == 1 {
		for _, other := range players {
			if other.Role == RoleMassone && other.ID != p.ID {
				return fmt.Sprintf("🤝 L'altro Massone è: %s", other.Nickname)
			}
		}
	}

	return ""
}
