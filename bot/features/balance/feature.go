package balance

import (
	"oasisbot/service"

	"github.com/bwmarrin/discordgo"
)

// Feature handles balance viewing and transfers
type Feature struct {
	userService service.UserService
}

// NewFeature creates a new balance feature instance
func NewFeature(userService service.UserService) *Feature {
	return &Feature{userService: userService}
}

// HandleBalance handles the /balance command
func (f *Feature) HandleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleBalance(s, i)
}

// HandlePay handles the /pay command
func (f *Feature) HandlePay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handlePay(s, i)
}
