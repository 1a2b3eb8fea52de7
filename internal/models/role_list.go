package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/cs2insight/impact-engine/internal/engine"
)

// RoleListEntry is one curated roster row: who a player is expected to
// be for a team, maintained by hand and refreshed alongside the stats.
// Leadership is never inferred from stats, so this table is the only
// source of IGL truth.
type RoleListEntry struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Team     string `gorm:"index;not null" json:"team"`
	Player   string `gorm:"index;not null" json:"player"`
	IsIGL    bool   `json:"is_igl"`
	TRole    string `json:"t_role"`
	CTRole   string `json:"ct_role"`

	CreatedAt time.Time `json:"created_at"`
}

func (RoleListEntry) TableName() string {
	return "role_list_entries"
}

// ReplaceRoleList swaps the entire curated roster table in one
// transaction so readers never observe a half-loaded list.
func ReplaceRoleList(db *gorm.DB, entries []RoleListEntry) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&RoleListEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
}

// GetRoleList loads the full curated roster in stable order.
func GetRoleList(db *gorm.DB) ([]RoleListEntry, error) {
	var out []RoleListEntry
	err := db.Order("team asc, player asc").Find(&out).Error
	return out, err
}

// BuildAllowlists folds curated entries into the engine's allow-lists.
// Players flagged as IGL join the leader list; players whose T or CT
// side role mentions the AWP join the marksman list.
func BuildAllowlists(entries []RoleListEntry) engine.Allowlists {
	var leaders, marksmen []string
	for _, e := range entries {
		if e.IsIGL {
			leaders = append(leaders, e.Player)
		}
		if isAWPRole(e.TRole) || isAWPRole(e.CTRole) {
			marksmen = append(marksmen, e.Player)
		}
	}
	return engine.NewAllowlists(leaders, marksmen)
}

func isAWPRole(role string) bool {
	switch role {
	case "AWP", "AWPer", "awp", "awper":
		return true
	}
	return false
}
