package cron

import (
	"fmt"
	"time"

	"github.com/avdeevk/lms-api/model"
)

// InactivityThreshold is how long an account may go without a login before
// the sweep blocks it.
const InactivityThreshold = 30 * 24 * time.Hour

// BlockInactiveUsers deactivates active users whose last login is older than
// the inactivity threshold. One bulk update; already-inactive users are
// excluded by the filter, so re-running is a no-op.
func (m *CronManager) BlockInactiveUsers() {
	jobName := "block_inactive_users"

	cutoff := time.Now().Add(-InactivityThreshold)

	result := m.db.Model(&model.User{}).
		Where("last_login < ? AND is_active = ?", cutoff, true).
		Update("is_active", false)

	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to block inactive users: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Blocked %d inactive users", result.RowsAffected))
}
