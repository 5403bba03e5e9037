package ai

const systemPrompt = `You are an expert resume analyzer and career advisor. Your role is to:
1. Analyze resumes for ATS optimization and completeness
2. Provide detailed, actionable feedback
3. Identify missing critical information
4. Suggest improvements for better job matching
5. Generate tailored cover letters

Always provide specific, actionable advice and maintain a professional tone.`

const analysisPrompt = `
Analyze this resume and provide a comprehensive assessment in JSON format with the following structure:
{
    "ats_score": <score from 0-100>,
    "strengths": [<list of strengths>],
    "weaknesses": [<list of weaknesses>],
    "missing_information": [<list of missing critical information>],
    "suggestions": [<list of specific improvement suggestions>],
    "keyword_optimization": {
        "recommended_keywords": [<list of keywords to add>],
        "keyword_density": <current keyword optimization score>
    },
    "section_scores": {
        "personal_info": <score 0-100>,
        "summary": <score 0-100>,
        "experience": <score 0-100>,
        "education": <score 0-100>,
        "skills": <score 0-100>,
        "overall_structure": <score 0-100>
    }
}

Resume Content:
%s
`

const coverLetterPrompt = `
Generate a professional, tailored cover letter based on the resume and job posting below.
The cover letter should be:
- Professional and engaging
- Specific to the company and role
- Highlight relevant experience and skills
- Show enthusiasm for the position
- Be approximately 3-4 paragraphs
- Include proper business letter formatting

Resume Summary:
%s

Job Posting:
Company: %s
Position: %s
Description: %s
Requirements: %s

Generate a complete cover letter that effectively matches the candidate's background to this specific role.
`

const parsePrompt = `
Parse this resume and extract structured information in JSON format:
{
    "personal_info": {
        "name": "",
        "email": "",
        "phone": "",
        "address": "",
        "linkedin": "",
        "github": ""
    },
    "summary": "",
    "experience": [
        {
            "title": "",
            "company": "",
            "location": "",
            "start_date": "",
            "end_date": "",
            "description": "",
            "achievements": []
        }
    ],
    "education": [
        {
            "degree": "",
            "institution": "",
            "location": "",
            "graduation_date": "",
            "gpa": ""
        }
    ],
    "skills": [],
    "certifications": [
        {
            "name": "",
            "issuer": "",
            "date": ""
        }
    ],
    "projects": [
        {
            "name": "",
            "description": "",
            "technologies": [],
            "date": ""
        }
    ],
    "languages": [
        {
            "name": "",
            "proficiency": ""
        }
    ]
}
`
