package race

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"oasisbot/bot/common"
	"oasisbot/config"
	"oasisbot/models"
	"oasisbot/service"
)

// parseIDs extracts the guild and invoker IDs from an interaction
func parseIDs(i *discordgo.InteractionCreate) (guildID, discordID int64, err error) {
	guildID, err = strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid guild ID %q: %w", i.GuildID, err)
	}
	discordID, err = strconv.ParseInt(i.Member.User.ID, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid user ID %q: %w", i.Member.User.ID, err)
	}
	return guildID, discordID, nil
}

// today returns midnight of the current race day
func today() time.Time {
	now := time.Now().In(config.Timezone)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, config.Timezone)
}

// raceErrorMessage localizes the race error taxonomy for command responses
func raceErrorMessage(err error) string {
	var ineligible *service.PetIneligibleError
	switch {
	case errors.As(err, &ineligible):
		switch ineligible.Reason {
		case service.ReasonNotOwned:
			return "自分のペットしか出走登録できません"
		case service.ReasonNotAdult:
			return "おとなのペットしか出走できません"
		case service.ReasonAlreadyRacedToday:
			return "このペットは今日すでに出走しています"
		}
		return "このペットは出走できません"
	case errors.Is(err, service.ErrRaceNotOpen):
		return "このレースは現在エントリーを受け付けていません"
	case errors.Is(err, service.ErrRaceClosed):
		return "このレースの馬券販売は終了しました"
	case errors.Is(err, service.ErrDuplicateEntry):
		return "このペットはすでにエントリー済みです"
	case errors.Is(err, service.ErrPetNotInRace):
		return "そのペットはこのレースの出走メンバーではありません"
	case errors.Is(err, service.ErrAmountInvalid):
		return "金額は1以上で指定してください"
	case errors.Is(err, service.ErrInsufficientFunds):
		return "所持金が足りません"
	case errors.Is(err, service.ErrNotFound):
		return "指定されたレースまたはペットが見つかりません"
	}
	return "処理に失敗しました。もう一度お試しください"
}

func (f *Feature) handleEnter(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, discordID, err := parseIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var raceNo int
	var petID int64
	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		switch opt.Name {
		case "race":
			raceNo = int(opt.IntValue())
		case "pet":
			petID = opt.IntValue()
		}
	}

	// The invoker must have an account before paying the entry fee
	if _, err := f.userService.GetOrCreateUser(ctx, guildID, discordID, i.Member.User.Username); err != nil {
		log.Errorf("Error getting user %d: %v", discordID, err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	schedule, err := f.scheduleService.Get(ctx, guildID, today(), raceNo)
	if err != nil {
		common.RespondWithError(s, i, raceErrorMessage(err))
		return
	}

	entry, err := f.entryService.Enter(ctx, guildID, schedule.ID, discordID, petID)
	if err != nil {
		if !isUserFacing(err) {
			log.Errorf("Error entering pet %d in race %d: %v", petID, schedule.ID, err)
		}
		common.RespondWithError(s, i, raceErrorMessage(err))
		return
	}

	pet, err := f.petService.GetPet(ctx, entry.PetID)
	name := fmt.Sprintf("ペット%d", entry.PetID)
	if err == nil {
		name = pet.Name
	}

	message := fmt.Sprintf("**%s** を第%dレース(%dm)にエントリーしました。参加費 **%s コイン**。抽選は %s",
		name, schedule.RaceNo, schedule.Distance,
		common.FormatBalance(schedule.EntryFee),
		common.FormatDiscordTimestamp(schedule.LockAt(), "t"))
	if err := common.RespondWithContent(s, i, message, false); err != nil {
		log.Errorf("Error responding to enter command: %v", err)
	}
}

func (f *Feature) handleBet(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, discordID, err := parseIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var raceNo int
	var petID, amount int64
	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		switch opt.Name {
		case "race":
			raceNo = int(opt.IntValue())
		case "pet":
			petID = opt.IntValue()
		case "amount":
			amount = opt.IntValue()
		}
	}

	if _, err := f.userService.GetOrCreateUser(ctx, guildID, discordID, i.Member.User.Username); err != nil {
		log.Errorf("Error getting user %d: %v", discordID, err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	schedule, err := f.scheduleService.Get(ctx, guildID, today(), raceNo)
	if err != nil {
		common.RespondWithError(s, i, raceErrorMessage(err))
		return
	}

	bet, err := f.bettingService.PlaceBet(ctx, guildID, schedule.ID, discordID, petID, amount)
	if err != nil {
		if !isUserFacing(err) {
			log.Errorf("Error placing bet on race %d: %v", schedule.ID, err)
		}
		common.RespondWithError(s, i, raceErrorMessage(err))
		return
	}

	pet, err := f.petService.GetPet(ctx, bet.PetID)
	name := fmt.Sprintf("ペット%d", bet.PetID)
	if err == nil {
		name = pet.Name
	}

	message := fmt.Sprintf("第%dレース: **%s** に **%s コイン** を賭けました",
		schedule.RaceNo, name, common.FormatBalance(bet.Amount))
	if err := common.RespondWithContent(s, i, message, false); err != nil {
		log.Errorf("Error responding to bet command: %v", err)
	}
}

func (f *Feature) handleOdds(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, _, err := parseIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var raceNo int
	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		if opt.Name == "race" {
			raceNo = int(opt.IntValue())
		}
	}

	schedule, err := f.scheduleService.Get(ctx, guildID, today(), raceNo)
	if err != nil {
		common.RespondWithError(s, i, raceErrorMessage(err))
		return
	}
	if !schedule.LotteryDone {
		common.RespondWithError(s, i, "出走メンバーはまだ決まっていません")
		return
	}

	quotes, err := f.bettingService.QuoteOdds(ctx, guildID, schedule.ID)
	if err != nil {
		log.Errorf("Error quoting odds for race %d: %v", schedule.ID, err)
		common.RespondWithError(s, i, "オッズの取得に失敗しました")
		return
	}

	embed := f.buildOddsEmbed(ctx, schedule, quotes)
	if err := common.RespondWithEmbed(s, i, embed, false); err != nil {
		log.Errorf("Error responding to odds command: %v", err)
	}
}

func (f *Feature) handleInfo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, _, err := parseIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	schedules, err := f.scheduleService.ListDay(ctx, guildID, today())
	if err != nil {
		log.Errorf("Error listing schedules for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "レース情報の取得に失敗しました")
		return
	}
	if len(schedules) == 0 {
		// First interaction in a guild the daily reset has not seen yet:
		// register the guild and build today's card on the spot
		if _, err := f.settingsService.GetOrCreateSettings(ctx, guildID); err != nil {
			log.Errorf("Error registering guild %d: %v", guildID, err)
		}
		if err := f.scheduleService.EnsureToday(ctx, guildID, today()); err != nil {
			log.Errorf("Error seeding schedules for guild %d: %v", guildID, err)
			common.RespondWithError(s, i, "レース情報の取得に失敗しました")
			return
		}
		schedules, err = f.scheduleService.ListDay(ctx, guildID, today())
		if err != nil || len(schedules) == 0 {
			log.Errorf("Error listing schedules for guild %d after seeding: %v", guildID, err)
			common.RespondWithError(s, i, "今日のレースはまだ組まれていません")
			return
		}
	}

	embed := buildDayEmbed(schedules)
	if err := common.RespondWithEmbed(s, i, embed, false); err != nil {
		log.Errorf("Error responding to info command: %v", err)
	}
}

func (f *Feature) handlePets(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, discordID, err := parseIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	pets, err := f.petService.ListUserPets(ctx, guildID, discordID)
	if err != nil {
		log.Errorf("Error listing pets for user %d: %v", discordID, err)
		common.RespondWithError(s, i, "ペット一覧の取得に失敗しました")
		return
	}
	if len(pets) == 0 {
		common.RespondWithError(s, i, "ペットがいません")
		return
	}

	embed := buildPetsEmbed(pets)
	if err := common.RespondWithEmbed(s, i, embed, true); err != nil {
		log.Errorf("Error responding to pets command: %v", err)
	}
}

func (f *Feature) handleForceLottery(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, _, err := parseIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	settings, err := f.settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Error loading settings for guild %d: %v", guildID, err)
		settings = nil
	}
	if !common.IsUserAdmin(s, i, settings) {
		common.RespondWithError(s, i, "このコマンドは管理者専用です")
		return
	}

	schedule, err := f.raceDayService.ForceLottery(ctx, guildID, time.Now().In(config.Timezone))
	if err != nil {
		if !isUserFacing(err) {
			log.Errorf("Error forcing lottery for guild %d: %v", guildID, err)
		}
		common.RespondWithError(s, i, raceErrorMessage(err))
		return
	}

	status := "出走メンバーが決定しました"
	if schedule.Abandoned {
		status = "出走数不足のため中止になりました"
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("第%dレース: %s", schedule.RaceNo, status))
}

// isUserFacing reports whether an error maps to a specific user message and
// therefore needs no server-side log
func isUserFacing(err error) bool {
	var ineligible *service.PetIneligibleError
	if errors.As(err, &ineligible) {
		return true
	}
	for _, sentinel := range []error{
		service.ErrRaceNotOpen, service.ErrRaceClosed, service.ErrDuplicateEntry,
		service.ErrPetNotInRace, service.ErrAmountInvalid,
		service.ErrInsufficientFunds, service.ErrNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// petLabel formats "name (ID)" for embed rows, falling back to the ID alone
func (f *Feature) petLabel(ctx context.Context, petID int64) string {
	pet, err := f.petService.GetPet(ctx, petID)
	if err != nil {
		return fmt.Sprintf("ペット%d", petID)
	}
	return fmt.Sprintf("%s (#%d)", pet.Name, pet.ID)
}

func scheduleStatus(s *models.RaceSchedule, now time.Time) string {
	switch {
	case s.Abandoned:
		return "中止"
	case s.RaceFinished:
		return "終了"
	case s.LotteryDone:
		return "発走前"
	case s.Locked:
		return "抽選中"
	case s.EntriesOpen(now):
		return "受付中"
	default:
		return "受付前"
	}
}

func buildDayEmbed(schedules []*models.RaceSchedule) *discordgo.MessageEmbed {
	now := time.Now().In(config.Timezone)
	var sb strings.Builder
	for _, s := range schedules {
		sb.WriteString(fmt.Sprintf("第%dレース %s %dm [%s]\n",
			s.RaceNo,
			common.FormatDiscordTimestamp(s.PostTime, "t"),
			s.Distance,
			scheduleStatus(s, now)))
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏇 本日のレース (%s)", schedules[0].RaceDate.Format("2006-01-02")),
		Description: sb.String(),
		Color:       0x4CAF50,
	}
}

func buildPetsEmbed(pets []*models.Pet) *discordgo.MessageEmbed {
	var sb strings.Builder
	for _, p := range pets {
		stage := "たまご"
		if p.IsAdult() {
			stage = "おとな"
		}
		raced := ""
		if p.RacedToday {
			raced = " (出走済)"
		}
		sb.WriteString(fmt.Sprintf("#%d **%s** [%s] S:%d P:%d St:%d C:%d%s\n",
			p.ID, p.Name, stage, p.Speed, p.Power, p.Stamina, p.Condition, raced))
	}

	return &discordgo.MessageEmbed{
		Title:       "🐾 ペット一覧",
		Description: sb.String(),
		Color:       0x2196F3,
	}
}
