package models

// Well-known tag systems stamped by the enricher.
const (
	SystemOrganizationTag          = "urn:intake:tag:organization"
	SystemPractitionerTag          = "urn:intake:tag:practitioner"
	SystemRelatedEntityLocationTag = "urn:intake:tag:related-entity-location"
)

func OrganizationTag(id string) Coding {
	return Coding{System: SystemOrganizationTag, Code: id}
}

func PractitionerTag(id string) Coding {
	return Coding{System: SystemPractitionerTag, Code: id}
}

func RelatedEntityLocationTag(id string) Coding {
	return Coding{System: SystemRelatedEntityLocationTag, Code: id}
}
