package ical

import (
	"time"

	"github.com/beevik/etree"

	"github.com/cyp0633/libagenda/schedule"
)

const xcalNamespace = "urn:ietf:params:xml:ns:icalendar-2.0"

// EncodeOccurrencesXCal renders an expanded occurrence window as an xCal
// (RFC 6321) document for XML-consuming view layers.
func EncodeOccurrencesXCal(occs []schedule.Occurrence) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("icalendar")
	root.CreateAttr("xmlns", xcalNamespace)
	vcal := root.CreateElement("vcalendar")

	props := vcal.CreateElement("properties")
	addTextProp(props, "prodid", "-//libagenda//xCal 1.0//EN")
	addTextProp(props, "version", "2.0")

	components := vcal.CreateElement("components")
	for _, occ := range occs {
		vevent := components.CreateElement("vevent")
		evProps := vevent.CreateElement("properties")

		addTextProp(evProps, "uid", occ.ID)
		if occ.Path != "" {
			addTextProp(evProps, "categories", occ.Path)
		}
		addStampProp(evProps, "dtstart", occ.Start)
		addStampProp(evProps, "dtend", occ.End)
		if occ.Virtual {
			addTextProp(evProps, "x-libagenda-virtual", "TRUE")
			addTextProp(evProps, "related-to", occ.ScheduleID)
		}
	}
	return doc
}

func addTextProp(parent *etree.Element, name, value string) {
	parent.CreateElement(name).CreateElement("text").SetText(value)
}

func addStampProp(parent *etree.Element, name string, t time.Time) {
	parent.CreateElement(name).CreateElement("date-time").SetText(t.UTC().Format("2006-01-02T15:04:05Z"))
}
