// Package fixtures holds the reference data a fresh deployment starts with.
package fixtures

import "github.com/nickiconcept/E-Result-Management-System/core/school"

// School returns the default sessions, terms, classes, arms, subjects and students.
func School() school.Fixtures {
	return school.Fixtures{
		Sessions: []school.Session{
			{ID: "s1", Name: "2023/2024", Active: true},
			{ID: "s2", Name: "2024/2025"},
		},
		Terms: []school.Term{
			{ID: "t1", Name: school.TermFirst, SessionID: "s1"},
			{ID: "t2", Name: school.TermSecond, SessionID: "s1", Active: true},
			{ID: "t3", Name: school.TermThird, SessionID: "s1"},
		},
		Classes: []school.Class{
			{ID: "c1", Name: "JSS1"},
			{ID: "c2", Name: "JSS2"},
			{ID: "c3", Name: "JSS3"},
			{ID: "c4", Name: "SSS1"},
			{ID: "c5", Name: "SSS2"},
			{ID: "c6", Name: "SSS3"},
		},
		Arms: []school.Arm{
			{ID: "a1", Name: "Gold"},
			{ID: "a2", Name: "Silver"},
			{ID: "a3", Name: "Diamond"},
		},
		Subjects: []school.Subject{
			{ID: "sub1", Name: "Mathematics", Code: "MTH"},
			{ID: "sub2", Name: "English Language", Code: "ENG"},
			{ID: "sub3", Name: "Basic Science", Code: "BSC"},
			{ID: "sub4", Name: "Civic Education", Code: "CVE"},
			{ID: "sub5", Name: "Agricultural Science", Code: "AGR"},
		},
		Students: []school.Student{
			{ID: "st1", AdmissionNo: "ADM/23/001", FirstName: "Chinedu", LastName: "Okonkwo", Gender: school.GenderMale, ClassID: "c1", ArmID: "a1", ParentID: "p1"},
			{ID: "st2", AdmissionNo: "ADM/23/002", FirstName: "Amina", LastName: "Yusuf", Gender: school.GenderFemale, ClassID: "c1", ArmID: "a1", ParentID: "p2"},
			{ID: "st3", AdmissionNo: "ADM/23/003", FirstName: "Bolaji", LastName: "Adeyemi", Gender: school.GenderMale, ClassID: "c1", ArmID: "a2", ParentID: "p3"},
			{ID: "st4", AdmissionNo: "ADM/23/004", FirstName: "Efe", LastName: "Okoro", Gender: school.GenderFemale, ClassID: "c2", ArmID: "a1", ParentID: "p4"},
			{ID: "st5", AdmissionNo: "ADM/23/005", FirstName: "Fatima", LastName: "Bello", Gender: school.GenderFemale, ClassID: "c2", ArmID: "a2", ParentID: "p5"},
		},
	}
}
