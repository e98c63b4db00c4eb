package race

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"oasisbot/bot/common"
	"oasisbot/models"
)

func (f *Feature) buildOddsEmbed(ctx context.Context, schedule *models.RaceSchedule, quotes []*models.PetOdds) *discordgo.MessageEmbed {
	var sb strings.Builder
	var pool int64
	for _, q := range quotes {
		sb.WriteString(fmt.Sprintf("%s  %s  (%s コイン)\n",
			f.petLabel(ctx, q.PetID),
			common.FormatOdds(q.Odds),
			common.FormatBalance(q.Stake)))
		pool += q.Stake
	}
	sb.WriteString(fmt.Sprintf("\n総プール: **%s コイン**", common.FormatBalance(pool)))

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("💰 第%dレース オッズ (参考値)", schedule.RaceNo),
		Description: sb.String(),
		Color:       0xFFC107,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "オッズは締切まで変動します",
		},
	}
}

// BuildResultEmbed renders a settled race for the guild's race channel
func BuildResultEmbed(result *models.RaceResult, petNames map[int64]string) *discordgo.MessageEmbed {
	schedule := result.Schedule

	if result.Abandoned || schedule.Abandoned {
		return &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("🏇 第%dレース 中止", schedule.RaceNo),
			Description: "出走数が足りなかったため、このレースは中止になりました。参加費は返金済みです。",
			Color:       0x9E9E9E,
		}
	}

	var sb strings.Builder
	for _, entry := range result.Ranked {
		name, ok := petNames[entry.PetID]
		if !ok {
			name = fmt.Sprintf("ペット%d", entry.PetID)
		}
		rank := 0
		if entry.Rank != nil {
			rank = *entry.Rank
		}
		sb.WriteString(fmt.Sprintf("%s **%s** <@%d>\n", common.FormatRank(rank), name, entry.OwnerDiscordID))
	}

	sb.WriteString(fmt.Sprintf("\n総プール: **%s コイン**", common.FormatBalance(result.TotalPool)))
	if result.Refunded {
		sb.WriteString("\n勝者に賭けた人がいなかったため、全馬券を返金しました")
	} else if len(result.Payouts) > 0 {
		userIDs := make([]int64, 0, len(result.Payouts))
		for userID := range result.Payouts {
			userIDs = append(userIDs, userID)
		}
		sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

		sb.WriteString("\n\n**払い戻し**\n")
		for _, userID := range userIDs {
			sb.WriteString(fmt.Sprintf("<@%d>: %s コイン\n", userID, common.FormatBalance(result.Payouts[userID])))
		}
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏇 第%dレース 結果 (%dm)", schedule.RaceNo, schedule.Distance),
		Description: sb.String(),
		Color:       0xE91E63,
	}
}
