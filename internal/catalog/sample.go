package catalog

import "github.com/bryan-buckman/donorhub/internal/model"

// SampleCamps returns the seed camp catalog.
func SampleCamps() []model.Camp {
	return []model.Camp{
		{ID: 1, Title: "City Hospital Blood Drive", Organizer: "City Hospital", Date: "May 15, 2025", Time: "10:00 AM - 4:00 PM", Location: "City Hospital Main Building", City: "Delhi", Phone: "011-2345-6789"},
		{ID: 2, Title: "Community Health Center Drive", Organizer: "Red Cross Society", Date: "May 18, 2025", Time: "9:00 AM - 2:00 PM", Location: "Community Health Center", City: "Mumbai", Phone: "022-3456-7890"},
		{ID: 3, Title: "College Campus Blood Drive", Organizer: "Student Council", Date: "May 20, 2025", Time: "11:00 AM - 5:00 PM", Location: "University Auditorium", City: "Bangalore", Phone: "080-4567-8901"},
		{ID: 4, Title: "Corporate Office Drive", Organizer: "Tech Solutions Inc.", Date: "May 22, 2025", Time: "10:00 AM - 3:00 PM", Location: "Tech Park Building A", City: "Hyderabad", Phone: "040-5678-9012"},
		{ID: 5, Title: "District Hospital Campaign", Organizer: "State Health Department", Date: "May 25, 2025", Time: "9:00 AM - 5:00 PM", Location: "District Hospital", City: "Chennai", Phone: "044-6789-0123"},
		{ID: 6, Title: "Mall Awareness Drive", Organizer: "Blood Connects NGO", Date: "May 27, 2025", Time: "11:00 AM - 7:00 PM", Location: "Central City Mall", City: "Delhi", Phone: "011-7890-1234"},
		{ID: 7, Title: "Rural Health Center Drive", Organizer: "Rural Health Mission", Date: "May 29, 2025", Time: "10:00 AM - 4:00 PM", Location: "Village Community Center", City: "Pune", Phone: "020-8901-2345"},
		{ID: 8, Title: "Weekend Public Drive", Organizer: "Life Savers Foundation", Date: "May 30, 2025", Time: "9:00 AM - 6:00 PM", Location: "Public Park", City: "Mumbai", Phone: "022-9012-3456"},
	}
}

// SampleRequests returns the seed urgent-request catalog.
func SampleRequests() []model.UrgentRequest {
	return []model.UrgentRequest{
		{ID: 1, BloodType: model.APos, Hospital: "Guru Nanak Hospital", Location: "Ludhiana, Punjab", ContactName: "Dr. Singh", ContactNumber: "98765-43210", Urgency: model.UrgencyHigh},
		{ID: 2, BloodType: model.ONeg, Hospital: "Civil Hospital", Location: "Fazilka, Punjab", ContactName: "Dr. Kaur", ContactNumber: "98765-43211", Urgency: model.UrgencyHigh},
		{ID: 3, BloodType: model.BPos, Hospital: "Apollo Hospital", Location: "Delhi", ContactName: "Dr. Sharma", ContactNumber: "98765-43212", Urgency: model.UrgencyMedium},
		{ID: 4, BloodType: model.ABNeg, Hospital: "Fortis Hospital", Location: "Mumbai", ContactName: "Dr. Patel", ContactNumber: "98765-43213", Urgency: model.UrgencyHigh},
		{ID: 5, BloodType: model.BNeg, Hospital: "City Hospital", Location: "Bangalore", ContactName: "Dr. Reddy", ContactNumber: "98765-43214", Urgency: model.UrgencyMedium},
		{ID: 6, BloodType: model.ANeg, Hospital: "AIIMS", Location: "Delhi", ContactName: "Dr. Gupta", ContactNumber: "98765-43215", Urgency: model.UrgencyLow},
	}
}
