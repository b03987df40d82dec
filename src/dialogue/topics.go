package dialogue

import (
	"strconv"

	"tracking_ivr/src/catalog"
	"tracking_ivr/src/menu"
	"tracking_ivr/src/model"
	"tracking_ivr/src/nlu"
)

var topicPrompts = map[menu.Section]string{
	menu.SectionGeneral:  catalog.PromptTopicGeneral,
	menu.SectionCosts:    catalog.PromptTopicCosts,
	menu.SectionSchedule: catalog.PromptTopicSchedule,
	menu.SectionLocation: catalog.PromptTopicLocation,
	menu.SectionUnit:     catalog.PromptTopicUnit,
}

var intentSections = map[nlu.Intent]menu.Section{
	nlu.IntentGeneralTopic:  menu.SectionGeneral,
	nlu.IntentCostTopic:     menu.SectionCosts,
	nlu.IntentScheduleTopic: menu.SectionSchedule,
	nlu.IntentLocationTopic: menu.SectionLocation,
	nlu.IntentUnitTopic:     menu.SectionUnit,
	nlu.IntentNewRecord:     menu.SectionNewRecord,
	nlu.IntentAgent:         menu.SectionAgent,
}

// topicText renders the spoken answer for a data section of rec
func topicText(c *catalog.Catalog, rec *model.Record, s menu.Section) string {
	key, ok := topicPrompts[s]
	if !ok {
		return ""
	}
	return c.Render(key, topicVars(rec, s))
}

func topicVars(rec *model.Record, s menu.Section) map[string]string {
	switch s {
	case menu.SectionGeneral:
		g := rec.General
		return map[string]string{"service": g.ServiceType, "client": g.Client, "description": g.Description}
	case menu.SectionCosts:
		c := rec.Costs
		currency := c.Currency
		if currency == "" {
			currency = "pesos"
		}
		return map[string]string{
			"total":    money(c.Total),
			"currency": currency,
			"paid":     money(c.Paid),
			"balance":  money(c.Balance()),
		}
	case menu.SectionSchedule:
		t := rec.Schedule
		return map[string]string{"requested": t.RequestedAt, "assigned": t.AssignedAt, "arrival": t.ArrivalAt}
	case menu.SectionLocation:
		l := rec.Location
		return map[string]string{"address": l.Address, "reference": l.Reference}
	case menu.SectionUnit:
		u := rec.Unit
		return map[string]string{"number": u.Number, "model": u.Model, "plate": u.Plate, "driver": u.Driver}
	}
	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
