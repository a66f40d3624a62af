package service

// 引导资料可选项；引导接口不拒绝列表之外的取值

var taxonomyMajors = []string{
	"Computer Science",
	"Engineering",
	"Business Administration",
	"Psychology",
	"Biology",
	"Economics",
	"Mathematics",
	"English Literature",
	"Political Science",
	"Chemistry",
	"Physics",
	"History",
	"Sociology",
	"Art",
	"Music",
	"Communications",
	"Education",
	"Nursing",
	"Philosophy",
	"Environmental Science",
}

var taxonomyInterests = []string{
	"Gaming", "Sports", "Reading", "Music", "Art", "Photography",
	"Cooking", "Travel", "Fitness", "Yoga", "Meditation", "Hiking",
	"Camping", "Swimming", "Dancing", "Singing", "Writing", "Blogging",
	"Podcasting", "Volunteering", "Coding", "Web Development", "Mobile Apps", "AI/ML",
	"Data Science", "Robotics", "3D Printing", "Electronics", "DIY Projects", "Gardening",
	"Sustainability", "Fashion", "Makeup", "Skincare", "Film", "TV Shows",
	"Anime", "Comics", "Board Games", "Card Games", "Chess", "Entrepreneurship",
	"Investing", "Cryptocurrency", "Languages", "Culture", "Politics", "Social Justice",
}

// Majors 返回专业列表副本
func Majors() []string {
	return append([]string(nil), taxonomyMajors...)
}

// Interests 返回兴趣列表副本
func Interests() []string {
	return append([]string(nil), taxonomyInterests...)
}
