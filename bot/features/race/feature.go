package race

import (
	"oasisbot/service"

	"github.com/bwmarrin/discordgo"
)

// Feature handles race entries, betting and race day information
type Feature struct {
	userService     service.UserService
	petService      service.PetService
	scheduleService service.RaceScheduleService
	entryService    service.RaceEntryService
	bettingService  service.RaceBettingService
	raceDayService  service.RaceDayService
	settingsService service.GuildSettingsService
}

// NewFeature creates a new race feature instance
func NewFeature(
	userService service.UserService,
	petService service.PetService,
	scheduleService service.RaceScheduleService,
	entryService service.RaceEntryService,
	bettingService service.RaceBettingService,
	raceDayService service.RaceDayService,
	settingsService service.GuildSettingsService,
) *Feature {
	return &Feature{
		userService:     userService,
		petService:      petService,
		scheduleService: scheduleService,
		entryService:    entryService,
		bettingService:  bettingService,
		raceDayService:  raceDayService,
		settingsService: settingsService,
	}
}

// HandleCommand routes /race subcommands to appropriate handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	switch options[0].Name {
	case "enter":
		f.handleEnter(s, i)
	case "bet":
		f.handleBet(s, i)
	case "odds":
		f.handleOdds(s, i)
	case "info":
		f.handleInfo(s, i)
	}
}

// HandlePets handles the /pets command
func (f *Feature) HandlePets(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handlePets(s, i)
}

// HandleForceLottery handles the debug lottery command
func (f *Feature) HandleForceLottery(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleForceLottery(s, i)
}
