package race

import (
	"fmt"
	"strings"
)

// entriesLockedNotice is posted when an entry window freezes
func entriesLockedNotice(raceNo int) string {
	return fmt.Sprintf("⏳ 第%dレースのエントリーを締め切りました。出走メンバーを抽選します", raceNo)
}

// lotteryNotice is posted when the lottery draws the runners for a race
func lotteryNotice(raceNo int, petNames []string, rejectedCount int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎟️ 第%dレース 出走メンバーが決定しました\n", raceNo))
	sb.WriteString(strings.Join(petNames, " / "))
	if rejectedCount > 0 {
		sb.WriteString(fmt.Sprintf("\n(抽選落ち %d 頭、参加費は返金済みです)", rejectedCount))
	}
	return sb.String()
}
