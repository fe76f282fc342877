package main

import (
	"fmt"

	"sidegig/internal/game"

	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func renderOffers(category string, offers []*game.Offer) {
	accent.Printf("\n== OFFERS (%s) ==\n", category)
	if len(offers) == 0 {
		printInfo("Nothing on the board today. Try `gig day end`.")
		return
	}
	for _, offer := range offers {
		payout := "-"
		if offer.Metadata != nil && offer.Metadata.Payout.Amount != nil {
			payout = fmt.Sprintf("$%.2f", *offer.Metadata.Payout.Amount)
		}
		hours := "-"
		if offer.Metadata != nil && offer.Metadata.HoursRequired != nil {
			hours = fmt.Sprintf("%.1fh", *offer.Metadata.HoursRequired)
		}
		label := offer.TemplateID
		if offer.Variant != nil && offer.Variant.Label != "" {
			label = offer.Variant.Label
		}
		status := ""
		if offer.Claimed {
			status = warn.Sprint(" [claimed]")
		}
		fmt.Printf("  %-14s %-28s %6s %8s  closes day %d%s\n",
			shortID(offer.ID), label, hours, payout, offer.ExpiresOnDay, status)
	}
}

func renderClaimed(category string, entries []*game.AcceptedEntry) {
	accent.Printf("\n== CLAIMED (%s) ==\n", category)
	if len(entries) == 0 {
		printInfo("No active commitments.")
		return
	}
	for _, entry := range entries {
		logged := 0.0
		if entry.HoursLogged != nil {
			logged = *entry.HoursLogged
		}
		line := fmt.Sprintf("  %-14s %-22s %5.1f/%.1fh  due day %d  [%s]",
			shortID(entry.InstanceID), entry.TemplateID, logged, entry.HoursRequired, entry.DeadlineDay, entry.Status)
		switch entry.Status {
		case game.EntryComplete:
			success.Println(line)
		case game.EntryExpired:
			danger.Println(line)
		default:
			fmt.Println(line)
		}
	}
}

func renderInstances(instances []*game.Instance) {
	accent.Println("\n== INSTANCES ==")
	if len(instances) == 0 {
		printInfo("No instances in progress.")
		return
	}
	for _, inst := range instances {
		required := "open-ended"
		if inst.HoursRequired != nil {
			required = fmt.Sprintf("%.1fh required", *inst.HoursRequired)
		}
		detail := ""
		if inst.Progress != nil && inst.Progress.DaysRequired != nil {
			detail = fmt.Sprintf("  %d/%d days", inst.Progress.DaysCompleted, *inst.Progress.DaysRequired)
		}
		fmt.Printf("  %-14s %-24s %5.1fh logged  %s%s  [%s]\n",
			shortID(inst.ID), inst.Name, inst.HoursLogged, required, detail, inst.Status)
	}
}

func renderDaySummary(summary game.DaySummary) {
	accent.Printf("\n== DAY %d ==\n", summary.Day)
	fmt.Printf("  new offers: %d\n", summary.NewOffers)
	if summary.Expired > 0 {
		warn.Printf("  expired overnight: %d\n", summary.Expired)
	}
	for _, audit := range summary.Audits {
		fmt.Printf("  %s: +%d offers\n", audit.Category, audit.Created)
	}
}

func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
