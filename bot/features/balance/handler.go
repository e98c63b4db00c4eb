package balance

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"oasisbot/bot/common"
	"oasisbot/service"
)

func (f *Feature) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		log.Errorf("Error parsing guild ID %s: %v", i.GuildID, err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	discordID, err := strconv.ParseInt(i.Member.User.ID, 10, 64)
	if err != nil {
		log.Errorf("Error parsing Discord ID %s: %v", i.Member.User.ID, err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	user, err := f.userService.GetOrCreateUser(ctx, guildID, discordID, i.Member.User.Username)
	if err != nil {
		log.Errorf("Error getting user %d: %v", discordID, err)
		common.RespondWithError(s, i, "Unable to retrieve balance. Please try again.")
		return
	}

	message := fmt.Sprintf("<@%d> の所持金: **%s コイン**", discordID, common.FormatBalance(user.Balance))
	if err := common.RespondWithContent(s, i, message, true); err != nil {
		log.Errorf("Error responding to balance command: %v", err)
	}
}

func (f *Feature) handlePay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		log.Errorf("Error parsing guild ID %s: %v", i.GuildID, err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	fromID, err := strconv.ParseInt(i.Member.User.ID, 10, 64)
	if err != nil {
		log.Errorf("Error parsing Discord ID %s: %v", i.Member.User.ID, err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	options := i.ApplicationCommandData().Options
	var amount int64
	var target *discordgo.User
	for _, opt := range options {
		switch opt.Name {
		case "amount":
			amount = opt.IntValue()
		case "user":
			target = opt.UserValue(s)
		}
	}
	if target == nil {
		common.RespondWithError(s, i, "送金先のユーザーを指定してください")
		return
	}
	toID, err := strconv.ParseInt(target.ID, 10, 64)
	if err != nil {
		log.Errorf("Error parsing target ID %s: %v", target.ID, err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	// Sender must exist before transferring
	if _, err := f.userService.GetOrCreateUser(ctx, guildID, fromID, i.Member.User.Username); err != nil {
		log.Errorf("Error getting sender %d: %v", fromID, err)
		common.RespondWithError(s, i, "Unable to process transfer. Please try again.")
		return
	}

	err = f.userService.TransferBetweenUsers(ctx, guildID, fromID, toID, amount, target.Username)
	switch {
	case errors.Is(err, service.ErrAmountInvalid):
		common.RespondWithError(s, i, "金額は1以上で指定してください")
		return
	case errors.Is(err, service.ErrInsufficientFunds):
		common.RespondWithError(s, i, "所持金が足りません")
		return
	case err != nil:
		log.Errorf("Error transferring %d from %d to %d: %v", amount, fromID, toID, err)
		common.RespondWithError(s, i, "送金に失敗しました")
		return
	}

	message := fmt.Sprintf("<@%d> に **%s コイン** を送金しました", toID, common.FormatBalance(amount))
	if err := common.RespondWithContent(s, i, message, false); err != nil {
		log.Errorf("Error responding to pay command: %v", err)
	}
}
