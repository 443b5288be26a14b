package ingest

import (
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/bryan-buckman/donorhub/internal/catalog"
	"github.com/bryan-buckman/donorhub/internal/model"
)

// campFromItem maps a feed entry to a camp. Organizers publish camp details
// as extra elements (<date>, <time>, <location>, <city>, <phone>,
// <bloodTypes>) or as categories; blood types found among the categories
// are collected, and the first other category stands in for a missing city.
// ok is false when the entry lacks what a camp needs.
func campFromItem(item *gofeed.Item, organizer string) (model.Camp, bool) {
	custom := func(key string) string {
		if item.Custom == nil {
			return ""
		}
		return strings.TrimSpace(item.Custom[key])
	}

	camp := model.Camp{
		Title:       strings.TrimSpace(item.Title),
		Organizer:   organizer,
		Date:        custom("date"),
		Time:        custom("time"),
		Location:    custom("location"),
		City:        custom("city"),
		Phone:       custom("phone"),
		Description: strings.TrimSpace(item.Description),
		GUID:        item.GUID,
	}
	if camp.GUID == "" {
		camp.GUID = item.Link
	}
	if len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "" {
		camp.Organizer = item.Authors[0].Name
	}
	if camp.Description == "" {
		camp.Description = strings.TrimSpace(item.Content)
	}
	if item.Image != nil {
		camp.ImageURL = item.Image.URL
	}
	if camp.Date == "" && item.PublishedParsed != nil {
		camp.Date = item.PublishedParsed.Format("2006-01-02")
	}

	for _, raw := range strings.Split(custom("bloodTypes"), ",") {
		if bt, err := model.ParseBloodType(raw); err == nil {
			camp.BloodTypesNeeded = append(camp.BloodTypesNeeded, bt)
		}
	}
	for _, cat := range item.Categories {
		if bt, err := model.ParseBloodType(cat); err == nil {
			camp.BloodTypesNeeded = append(camp.BloodTypesNeeded, bt)
			continue
		}
		if camp.City == "" {
			camp.City = strings.TrimSpace(cat)
		}
	}
	if camp.Location == "" {
		camp.Location = camp.City
	}

	if camp.GUID == "" || camp.Title == "" || camp.Organizer == "" || camp.Date == "" || camp.City == "" {
		return camp, false
	}
	return camp, true
}

// campFromDecoded prepares a camp read from a JSON catalog source.
func campFromDecoded(dc catalog.DecodedCamp) model.Camp {
	camp := dc.Camp
	camp.ID = 0
	camp.GUID = dc.ExternalID
	if camp.GUID == "" {
		camp.GUID = strings.ToLower(strings.Join([]string{camp.Title, camp.Date, camp.City}, "|"))
	}
	return camp
}
