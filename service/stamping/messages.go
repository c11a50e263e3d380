package stamping

import (
	"fmt"

	"github.com/stampme/stampme/model"
)

func msgNewRequest(customer model.User) string {
	name := customer.FirstName
	if customer.Username.Valid {
		name = "@" + customer.Username.String
	}
	return fmt.Sprintf("New stamp request from %s", name)
}

func msgStampApproved(campaign model.Campaign, newStamps int) string {
	remaining := campaign.StampsNeeded - newStamps
	return fmt.Sprintf(
		"New stamp added! %s: %d/%d. Only %d more to go!",
		campaign.Name, newStamps, campaign.StampsNeeded, remaining,
	)
}

func msgRewardEarned(campaign model.Campaign) string {
	return fmt.Sprintf(
		"Congratulations! You completed %s. Show your card to claim the reward!",
		campaign.Name,
	)
}

func msgRequestRejected(reason string) string {
	if reason == "" {
		return "Sorry, your stamp request was not approved. Please try again or contact the merchant."
	}
	return fmt.Sprintf("Sorry, your stamp request was not approved: %s", reason)
}
