// Package io reads and writes compiled form specs as JSON.
//
// The JSON layout is the one documented on [form.Spec]:
//
//	{
//	  "title": "Planning",
//	  "sections": [
//	    {
//	      "id": "A", "title": "1 Intro", "name": "Intro", "order": 1,
//	      "questions": [
//	        {
//	          "id": "B", "text": "Has deadline?",
//	          "answers": [{"text": "Yes", "targetId": "C", "multiple": false, "recommendation": "Use calendar"}],
//	          "dependencies": []
//	        }
//	      ],
//	      "recommendations": ["Use calendar"]
//	    }
//	  ]
//	}
//
// [ExportSpec] and [WriteSpec] write a spec; [ImportSpec] and [ReadSpec]
// read one back and reject documents whose dependencies point at questions
// that are not in the form. A spec written by this package reads back
// unchanged.
//
// [form.Spec]: github.com/matzehuels/flowform/pkg/form.Spec
package io
